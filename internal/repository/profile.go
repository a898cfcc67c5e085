package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/thirtyapp/thirty/internal/model"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	// ErrDayMismatch is returned when a progression write finds the profile
	// no longer in the state the caller observed (wrong track or wrong day).
	ErrDayMismatch = errors.New("day does not match the current day of the active track")
)

type ProfileRepository interface {
	Create(profile *model.Profile) error
	ByUserID(userID string) (*model.Profile, error)
	UpdateName(userID, name string) error
	UpdateAvatar(userID string, avatarPath *string) error
	CompleteOnboarding(userID string) error
	StartTrack(userID string, track model.Track) error
	AdvanceDay(userID string, track model.Track, day int) error
	FinishTrack(userID string, track model.Track, day int) (*model.TrackCompletion, error)
	Completions(userID string) ([]*model.TrackCompletion, error)
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(profile *model.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}

	query := `
		INSERT INTO profiles (
			id, user_id, name, avatar_path, current_track, current_day,
			streak, total_days_completed, onboarding_completed, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(query,
		profile.ID,
		profile.UserID,
		profile.Name,
		profile.AvatarPath,
		profile.CurrentTrack,
		profile.CurrentDay,
		profile.Streak,
		profile.TotalDaysCompleted,
		profile.OnboardingCompleted,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	return err
}

func (r *profileRepository) ByUserID(userID string) (*model.Profile, error) {
	profile := &model.Profile{}
	query := `SELECT * FROM profiles WHERE user_id = $1`

	err := r.db.Get(profile, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}

	return profile, err
}

func (r *profileRepository) UpdateName(userID, name string) error {
	query := `UPDATE profiles SET name = $1, updated_at = $2 WHERE user_id = $3`

	result, err := r.db.Exec(query, name, time.Now(), userID)
	if err != nil {
		return err
	}
	return requireRow(result, ErrProfileNotFound)
}

func (r *profileRepository) UpdateAvatar(userID string, avatarPath *string) error {
	query := `UPDATE profiles SET avatar_path = $1, updated_at = $2 WHERE user_id = $3`

	result, err := r.db.Exec(query, avatarPath, time.Now(), userID)
	if err != nil {
		return err
	}
	return requireRow(result, ErrProfileNotFound)
}

func (r *profileRepository) CompleteOnboarding(userID string) error {
	query := `UPDATE profiles SET onboarding_completed = TRUE, updated_at = $1 WHERE user_id = $2`

	result, err := r.db.Exec(query, time.Now(), userID)
	if err != nil {
		return err
	}
	return requireRow(result, ErrProfileNotFound)
}

func (r *profileRepository) StartTrack(userID string, track model.Track) error {
	query := `UPDATE profiles SET current_track = $1, current_day = 1, updated_at = $2 WHERE user_id = $3`

	result, err := r.db.Exec(query, track, time.Now(), userID)
	if err != nil {
		return err
	}
	return requireRow(result, ErrProfileNotFound)
}

// AdvanceDay moves the profile from day N to N+1 and bumps both counters.
// The WHERE clause carries the state guard, so two racing requests for the
// same day can never both succeed: the loser matches zero rows.
func (r *profileRepository) AdvanceDay(userID string, track model.Track, day int) error {
	query := `
		UPDATE profiles
		SET current_day = current_day + 1,
		    streak = streak + 1,
		    total_days_completed = total_days_completed + 1,
		    updated_at = $1
		WHERE user_id = $2 AND current_track = $3 AND current_day = $4
	`

	result, err := r.db.Exec(query, time.Now(), userID, track, day)
	if err != nil {
		return err
	}
	return requireRow(result, ErrDayMismatch)
}

// FinishTrack handles the day-30 transition: clear the active track, bump
// the counters, and append the completion record. The guarded UPDATE and
// the INSERT commit together or not at all.
func (r *profileRepository) FinishTrack(userID string, track model.Track, day int) (*model.TrackCompletion, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()

	update := `
		UPDATE profiles
		SET current_track = NULL,
		    current_day = 0,
		    streak = streak + 1,
		    total_days_completed = total_days_completed + 1,
		    updated_at = $1
		WHERE user_id = $2 AND current_track = $3 AND current_day = $4
	`

	result, err := tx.Exec(update, now, userID, track, day)
	if err != nil {
		return nil, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrDayMismatch
	}

	completion := &model.TrackCompletion{
		ID:            uuid.New().String(),
		UserID:        userID,
		Track:         track,
		DaysCompleted: day,
		CompletedAt:   now,
	}

	insert := `
		INSERT INTO track_completions (id, user_id, track, days_completed, completed_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.Exec(insert, completion.ID, completion.UserID, completion.Track, completion.DaysCompleted, completion.CompletedAt)
	if err != nil {
		return nil, err
	}

	err = tx.Commit()
	if err != nil {
		return nil, err
	}

	return completion, nil
}

func (r *profileRepository) Completions(userID string) ([]*model.TrackCompletion, error) {
	var completions []*model.TrackCompletion
	query := `SELECT * FROM track_completions WHERE user_id = $1 ORDER BY completed_at ASC`

	err := r.db.Select(&completions, query, userID)
	if err != nil {
		return nil, err
	}

	return completions, nil
}

func requireRow(result sql.Result, missing error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return missing
	}
	return nil
}
