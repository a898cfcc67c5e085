package service

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/repository"
	"github.com/thirtyapp/thirty/internal/storage"
	"github.com/thirtyapp/thirty/internal/validation"
)

// FileService stores user avatars in object storage and tracks them in
// the files table.
type FileService struct {
	fileRepo    repository.FileRepository
	profileRepo repository.ProfileRepository
	storage     storage.Storage
}

func NewFileService(fileRepo repository.FileRepository, profileRepo repository.ProfileRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepo:    fileRepo,
		profileRepo: profileRepo,
		storage:     storage,
	}
}

// UploadAvatar validates and stores the avatar, then points the profile
// at the new object. The previous avatar object is removed best effort.
func (s *FileService) UploadAvatar(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (*model.Profile, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("file storage not configured")
	}

	contentType := header.Header.Get("Content-Type")
	err := validation.ValidateAvatar(contentType, header.Size)
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(header.Filename)
	path := filepath.Join("avatars", uuid.New().String()+ext)

	err = s.storage.Save(ctx, path, file)
	if err != nil {
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}

	fileModel := &model.File{
		ID:          uuid.New().String(),
		UserID:      userID,
		Path:        path,
		ContentType: contentType,
		Size:        header.Size,
		CreatedAt:   time.Now(),
	}
	err = s.fileRepo.Create(fileModel)
	if err != nil {
		delErr := s.storage.Delete(ctx, path)
		if delErr != nil {
			slog.Error("failed to clean up avatar after record failure", "error", delErr, "path", path)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	profile, err := s.profileRepo.ByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	oldPath := profile.AvatarPath

	err = s.profileRepo.UpdateAvatar(userID, &path)
	if err != nil {
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}

	if oldPath != nil && *oldPath != path {
		delErr := s.storage.Delete(ctx, *oldPath)
		if delErr != nil {
			slog.Warn("failed to delete old avatar", "error", delErr, "path", *oldPath)
		}
	}

	profile, err = s.profileRepo.ByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload profile: %w", err)
	}
	profile.AvatarURL = s.storage.PublicURL(path)
	return profile, nil
}

// DeleteAvatar clears the profile's avatar and removes the object.
func (s *FileService) DeleteAvatar(ctx context.Context, userID string) error {
	profile, err := s.profileRepo.ByUserID(userID)
	if err != nil {
		return fmt.Errorf("failed to get profile: %w", err)
	}
	if profile.AvatarPath == nil {
		return nil
	}

	path := *profile.AvatarPath
	err = s.profileRepo.UpdateAvatar(userID, nil)
	if err != nil {
		return fmt.Errorf("failed to clear avatar: %w", err)
	}

	if s.storage != nil {
		delErr := s.storage.Delete(ctx, path)
		if delErr != nil {
			slog.Warn("failed to delete avatar object", "error", delErr, "path", path)
		}
	}
	return nil
}
