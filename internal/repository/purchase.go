package repository

import (
	"github.com/jmoiron/sqlx"
	"github.com/thirtyapp/thirty/internal/model"
)

type PurchaseRepository interface {
	// Grant inserts the purchase if the user does not already own the
	// track. Returns true when a new row was written, false when the
	// grant was a replay (already owned).
	Grant(purchase *model.Purchase) (bool, error)
	Tracks(userID string) ([]model.Track, error)
	Owns(userID string, track model.Track) (bool, error)
	ByUserID(userID string) ([]*model.Purchase, error)
}

type purchaseRepository struct {
	db *sqlx.DB
}

func NewPurchaseRepository(db *sqlx.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

// Grant relies on the UNIQUE(user_id, track) constraint: replaying the same
// grant (webhook redelivery, client confirm racing the webhook) is a no-op
// rather than a duplicate row or an error.
func (r *purchaseRepository) Grant(purchase *model.Purchase) (bool, error) {
	query := `
		INSERT INTO purchases (id, user_id, track, provider, payment_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, track) DO NOTHING
	`

	result, err := r.db.Exec(query,
		purchase.ID,
		purchase.UserID,
		purchase.Track,
		purchase.Provider,
		purchase.PaymentRef,
		purchase.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (r *purchaseRepository) Tracks(userID string) ([]model.Track, error) {
	var tracks []model.Track
	query := `SELECT track FROM purchases WHERE user_id = $1 ORDER BY created_at ASC`

	err := r.db.Select(&tracks, query, userID)
	if err != nil {
		return nil, err
	}

	return tracks, nil
}

func (r *purchaseRepository) Owns(userID string, track model.Track) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM purchases WHERE user_id = $1 AND track = $2`

	err := r.db.Get(&count, query, userID, track)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *purchaseRepository) ByUserID(userID string) ([]*model.Purchase, error) {
	var purchases []*model.Purchase
	query := `SELECT * FROM purchases WHERE user_id = $1 ORDER BY created_at ASC`

	err := r.db.Select(&purchases, query, userID)
	if err != nil {
		return nil, err
	}

	return purchases, nil
}
