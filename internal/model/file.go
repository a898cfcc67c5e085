package model

import "time"

// File is an uploaded object (currently only profile avatars) stored in
// S3-compatible storage under Path.
type File struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Path        string    `db:"path"`
	ContentType string    `db:"content_type"`
	Size        int64     `db:"size"`
	CreatedAt   time.Time `db:"created_at"`
}
