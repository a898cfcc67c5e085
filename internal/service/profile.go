package service

import (
	"fmt"

	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/repository"
	"github.com/thirtyapp/thirty/internal/storage"
)

type ProfileService struct {
	repo    repository.ProfileRepository
	storage storage.Storage
}

func NewProfileService(repo repository.ProfileRepository, storage storage.Storage) *ProfileService {
	return &ProfileService{repo: repo, storage: storage}
}

// ByUserID loads the profile and fills the computed avatar URL.
func (s *ProfileService) ByUserID(userID string) (*model.Profile, error) {
	profile, err := s.repo.ByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if profile.AvatarPath != nil && s.storage != nil {
		profile.AvatarURL = s.storage.PublicURL(*profile.AvatarPath)
	}

	return profile, nil
}

func (s *ProfileService) UpdateName(userID, name string) (*model.Profile, error) {
	err := s.repo.UpdateName(userID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to update name: %w", err)
	}
	return s.ByUserID(userID)
}
