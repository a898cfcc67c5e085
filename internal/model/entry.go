package model

import "time"

// JournalEntry holds one day's writing. At most one entry exists per
// (user, track, day); saves upsert by day number.
type JournalEntry struct {
	ID                string    `db:"id"`
	UserID            string    `db:"user_id"`
	Track             Track     `db:"track"`
	Day               int       `db:"day"`
	MorningIntention  string    `db:"morning_intention"`
	EveningReflection string    `db:"evening_reflection"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}
