package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/repository"
)

var (
	ErrTrackNotPurchased = errors.New("track not purchased")
	ErrNoActiveTrack     = errors.New("no active track")
	ErrDayOutOfRange     = errors.New("day out of range")
	ErrDayMismatch       = repository.ErrDayMismatch
	ErrEntryEmpty        = errors.New("entry has no content")
)

// JournalService drives the 30-day challenge: starting a track, writing
// the day's entry, and advancing one day at a time until completion.
type JournalService struct {
	profileRepo  repository.ProfileRepository
	entryRepo    repository.EntryRepository
	entitlements *EntitlementService
}

func NewJournalService(
	profileRepo repository.ProfileRepository,
	entryRepo repository.EntryRepository,
	entitlements *EntitlementService,
) *JournalService {
	return &JournalService{
		profileRepo:  profileRepo,
		entryRepo:    entryRepo,
		entitlements: entitlements,
	}
}

// StartTrack activates a purchased track at day 1. A user works one track
// at a time: switching while another track is active abandons that
// track's progress, and restarting the active track resets it to day 1.
// Saved entries survive either way.
func (s *JournalService) StartTrack(userID string, track model.Track) (*model.Profile, error) {
	owned, err := s.entitlements.Owns(userID, track)
	if err != nil {
		return nil, fmt.Errorf("failed to check purchase: %w", err)
	}
	if !owned {
		return nil, ErrTrackNotPurchased
	}

	profile, err := s.profileRepo.ByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile.HasActiveTrack() {
		slog.Info("abandoning active track progress",
			"user_id", userID,
			"from", *profile.CurrentTrack,
			"day", profile.CurrentDay,
			"to", track,
		)
	}

	err = s.profileRepo.StartTrack(userID, track)
	if err != nil {
		return nil, fmt.Errorf("failed to start track: %w", err)
	}

	profile, err = s.profileRepo.ByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload profile: %w", err)
	}

	slog.Info("track started", "user_id", userID, "track", track)
	return profile, nil
}

// CompleteDay advances the user's active track by one day. The caller
// states which day it believes it is completing; a stale client loses to
// whoever advanced first and gets ErrDayMismatch back. Completing day 30
// finishes the track and clears the active state.
func (s *JournalService) CompleteDay(userID string, track model.Track, day int) (*model.Profile, *model.TrackCompletion, error) {
	if day < 1 || day > model.TrackDays {
		return nil, nil, ErrDayOutOfRange
	}

	profile, err := s.profileRepo.ByUserID(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if !profile.HasActiveTrack() || *profile.CurrentTrack != track {
		return nil, nil, ErrNoActiveTrack
	}

	if day == model.TrackDays {
		completion, err := s.profileRepo.FinishTrack(userID, track, day)
		if err != nil {
			return nil, nil, err
		}
		profile, err = s.profileRepo.ByUserID(userID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to reload profile: %w", err)
		}
		slog.Info("track completed", "user_id", userID, "track", track)
		return profile, completion, nil
	}

	err = s.profileRepo.AdvanceDay(userID, track, day)
	if err != nil {
		return nil, nil, err
	}

	profile, err = s.profileRepo.ByUserID(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reload profile: %w", err)
	}

	slog.Info("day completed", "user_id", userID, "track", track, "day", day)
	return profile, nil, nil
}

// SaveEntry writes or overwrites the journal entry for one day of a
// track. Entries can be edited for any day up to and including the
// current one; days not yet reached are rejected.
func (s *JournalService) SaveEntry(userID string, track model.Track, day int, morning, evening string) (*model.JournalEntry, error) {
	if day < 1 || day > model.TrackDays {
		return nil, ErrDayOutOfRange
	}
	if strings.TrimSpace(morning) == "" && strings.TrimSpace(evening) == "" {
		return nil, ErrEntryEmpty
	}

	owned, err := s.entitlements.Owns(userID, track)
	if err != nil {
		return nil, fmt.Errorf("failed to check purchase: %w", err)
	}
	if !owned {
		return nil, ErrTrackNotPurchased
	}

	reached, err := s.dayReached(userID, track, day)
	if err != nil {
		return nil, err
	}
	if !reached {
		return nil, ErrDayOutOfRange
	}

	entry := &model.JournalEntry{
		ID:                uuid.New().String(),
		UserID:            userID,
		Track:             track,
		Day:               day,
		MorningIntention:  morning,
		EveningReflection: evening,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}

	err = s.entryRepo.Upsert(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}
	return s.entryRepo.ByDay(userID, track, day)
}

func (s *JournalService) Entry(userID string, track model.Track, day int) (*model.JournalEntry, error) {
	if day < 1 || day > model.TrackDays {
		return nil, ErrDayOutOfRange
	}
	return s.entryRepo.ByDay(userID, track, day)
}

func (s *JournalService) Entries(userID string, track model.Track) ([]*model.JournalEntry, error) {
	entries, err := s.entryRepo.ByTrack(userID, track)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

func (s *JournalService) Completions(userID string) ([]*model.TrackCompletion, error) {
	return s.profileRepo.Completions(userID)
}

// dayReached reports whether the user has progressed far enough into the
// track to write the given day. Completed tracks allow editing any day.
func (s *JournalService) dayReached(userID string, track model.Track, day int) (bool, error) {
	profile, err := s.profileRepo.ByUserID(userID)
	if err != nil {
		return false, fmt.Errorf("failed to load profile: %w", err)
	}

	if profile.HasActiveTrack() && *profile.CurrentTrack == track {
		return day <= profile.CurrentDay, nil
	}

	completions, err := s.profileRepo.Completions(userID)
	if err != nil {
		return false, fmt.Errorf("failed to load completions: %w", err)
	}
	for _, c := range completions {
		if c.Track == track {
			return true, nil
		}
	}
	return false, nil
}
