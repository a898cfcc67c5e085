package model

import (
	"time"
)

// AccessCode grants its tracks without payment. usage_count never exceeds
// usage_limit; redemption fails once exhausted, expired, or deactivated.
type AccessCode struct {
	ID         string     `db:"id"`
	Code       string     `db:"code"`
	TrackNames TrackList  `db:"track_names"`
	UsageLimit int        `db:"usage_limit"`
	UsageCount int        `db:"usage_count"`
	ExpiresAt  *time.Time `db:"expires_at"`
	Active     bool       `db:"active"`
	LastUsedAt *time.Time `db:"last_used_at"`
	LastUsedBy *string    `db:"last_used_by"`
	CreatedAt  time.Time  `db:"created_at"`
}

func (c *AccessCode) IsExpired() bool {
	return c.ExpiresAt != nil && time.Now().After(*c.ExpiresAt)
}

func (c *AccessCode) IsExhausted() bool {
	return c.UsageCount >= c.UsageLimit
}
