package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/thirtyapp/thirty/internal/model"
)

var (
	ErrCodeNotFound  = errors.New("access code not found")
	ErrCodeExhausted = errors.New("access code usage limit reached")
)

type AccessCodeRepository interface {
	Create(code *model.AccessCode) error
	ByCode(code string) (*model.AccessCode, error)
	Consume(code, userID string) (*model.AccessCode, error)
	List() ([]*model.AccessCode, error)
}

type accessCodeRepository struct {
	db *sqlx.DB
}

func NewAccessCodeRepository(db *sqlx.DB) AccessCodeRepository {
	return &accessCodeRepository{db: db}
}

func (r *accessCodeRepository) Create(code *model.AccessCode) error {
	query := `
		INSERT INTO access_codes (
			id, code, track_names, usage_limit, usage_count,
			expires_at, active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(query,
		code.ID,
		code.Code,
		code.TrackNames,
		code.UsageLimit,
		code.UsageCount,
		code.ExpiresAt,
		code.Active,
		code.CreatedAt,
	)
	return err
}

func (r *accessCodeRepository) ByCode(code string) (*model.AccessCode, error) {
	ac := &model.AccessCode{}
	query := `SELECT * FROM access_codes WHERE code = $1`

	err := r.db.Get(ac, query, code)
	if err == sql.ErrNoRows {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}

	return ac, nil
}

// Consume atomically claims one use of the code. The usage_count guard sits
// in the WHERE clause, so concurrent redemptions cannot push usage_count
// past usage_limit: the losing request matches zero rows and gets
// ErrCodeExhausted without mutating anything.
func (r *accessCodeRepository) Consume(code, userID string) (*model.AccessCode, error) {
	ac := &model.AccessCode{}
	now := time.Now()

	query := `
		UPDATE access_codes
		SET usage_count = usage_count + 1,
		    last_used_at = $1,
		    last_used_by = $2
		WHERE code = $3
		AND usage_count < usage_limit
		RETURNING *
	`

	err := r.db.Get(ac, query, now, userID, code)
	if err == sql.ErrNoRows {
		return nil, ErrCodeExhausted
	}
	if err != nil {
		return nil, err
	}

	return ac, nil
}

func (r *accessCodeRepository) List() ([]*model.AccessCode, error) {
	var codes []*model.AccessCode
	query := `SELECT * FROM access_codes ORDER BY created_at DESC`

	err := r.db.Select(&codes, query)
	if err != nil {
		return nil, err
	}

	return codes, nil
}
