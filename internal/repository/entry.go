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
	ErrEntryNotFound = errors.New("journal entry not found")
)

type EntryRepository interface {
	Upsert(entry *model.JournalEntry) error
	ByDay(userID string, track model.Track, day int) (*model.JournalEntry, error)
	ByTrack(userID string, track model.Track) ([]*model.JournalEntry, error)
}

type entryRepository struct {
	db *sqlx.DB
}

func NewEntryRepository(db *sqlx.DB) EntryRepository {
	return &entryRepository{db: db}
}

// Upsert writes the day's entry, keyed by (user, track, day). A second save
// for the same day updates the content in place, preserving created_at.
func (r *entryRepository) Upsert(entry *model.JournalEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	query := `
		INSERT INTO journal_entries (
			id, user_id, track, day, morning_intention, evening_reflection, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, track, day) DO UPDATE SET
			morning_intention = excluded.morning_intention,
			evening_reflection = excluded.evening_reflection,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		entry.ID,
		entry.UserID,
		entry.Track,
		entry.Day,
		entry.MorningIntention,
		entry.EveningReflection,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	return err
}

func (r *entryRepository) ByDay(userID string, track model.Track, day int) (*model.JournalEntry, error) {
	entry := &model.JournalEntry{}
	query := `SELECT * FROM journal_entries WHERE user_id = $1 AND track = $2 AND day = $3`

	err := r.db.Get(entry, query, userID, track, day)
	if err == sql.ErrNoRows {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (r *entryRepository) ByTrack(userID string, track model.Track) ([]*model.JournalEntry, error) {
	var entries []*model.JournalEntry
	query := `SELECT * FROM journal_entries WHERE user_id = $1 AND track = $2 ORDER BY day ASC`

	err := r.db.Select(&entries, query, userID, track)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
