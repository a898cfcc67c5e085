package model

import "time"

// Profile carries the per-user progression state. CurrentDay is meaningful
// only while CurrentTrack is set.
type Profile struct {
	ID                  string    `db:"id"`
	UserID              string    `db:"user_id"`
	Name                string    `db:"name"`
	AvatarPath          *string   `db:"avatar_path"`
	CurrentTrack        *Track    `db:"current_track"`
	CurrentDay          int       `db:"current_day"`
	Streak              int       `db:"streak"`
	TotalDaysCompleted  int       `db:"total_days_completed"`
	OnboardingCompleted bool      `db:"onboarding_completed"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`

	// Computed, not stored.
	AvatarURL string `db:"-"`
}

func (p *Profile) HasActiveTrack() bool {
	return p.CurrentTrack != nil && *p.CurrentTrack != ""
}

// TrackCompletion records one finished 30-day track, appended in
// completion order.
type TrackCompletion struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	Track         Track     `db:"track"`
	DaysCompleted int       `db:"days_completed"`
	CompletedAt   time.Time `db:"completed_at"`
}
