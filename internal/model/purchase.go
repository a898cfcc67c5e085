package model

import "time"

// Purchase is one owned track. The (user_id, track) pair is unique, which
// is what makes entitlement grants idempotent under webhook replay.
type Purchase struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	Track      Track     `db:"track"`
	Provider   string    `db:"provider"`
	PaymentRef string    `db:"payment_ref"`
	CreatedAt  time.Time `db:"created_at"`
}

// Purchase provenance values.
const (
	ProviderStripe           = "stripe"
	ProviderPolar            = "polar"
	PurchaseSourceAccessCode = "access_code"
)
