package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/repository"
)

var (
	ErrCodeNotFound  = repository.ErrCodeNotFound
	ErrCodeInactive  = errors.New("access code is inactive")
	ErrCodeExpired   = errors.New("access code has expired")
	ErrCodeExhausted = repository.ErrCodeExhausted
)

// codeAlphabet avoids ambiguous characters so codes survive being read
// aloud or typed from paper.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 10

// AccessCodeService issues and redeems promotional codes that grant
// tracks without payment.
type AccessCodeService struct {
	repo         repository.AccessCodeRepository
	entitlements *EntitlementService
}

func NewAccessCodeService(repo repository.AccessCodeRepository, entitlements *EntitlementService) *AccessCodeService {
	return &AccessCodeService{repo: repo, entitlements: entitlements}
}

// Generate creates a new code granting the given tracks. usageLimit is
// how many distinct redemptions the code allows; expiresAt of nil means
// the code never expires.
func (s *AccessCodeService) Generate(tracks []model.Track, usageLimit int, expiresAt *time.Time, createdBy string) (*model.AccessCode, error) {
	if len(tracks) == 0 {
		return nil, fmt.Errorf("access code must grant at least one track")
	}
	if usageLimit < 1 {
		return nil, fmt.Errorf("usage limit must be at least 1")
	}

	code, err := randomCode(codeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	accessCode := &model.AccessCode{
		ID:         uuid.New().String(),
		Code:       code,
		TrackNames: model.TrackList(tracks),
		UsageLimit: usageLimit,
		UsageCount: 0,
		Active:     true,
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now(),
	}

	err = s.repo.Create(accessCode)
	if err != nil {
		return nil, fmt.Errorf("failed to create access code: %w", err)
	}

	slog.Info("access code generated", "code", code, "tracks", tracks, "usage_limit", usageLimit, "created_by", createdBy)
	return accessCode, nil
}

// Redeem consumes one use of the code and grants its tracks to the user.
// Validity is checked before the consume so the caller gets a precise
// error; the consume itself re-checks the usage limit atomically, so two
// racing redemptions of a code's last use cannot both succeed.
func (s *AccessCodeService) Redeem(userID, code string) ([]model.Track, error) {
	accessCode, err := s.repo.ByCode(code)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to look up access code: %w", err)
	}

	if !accessCode.Active {
		return nil, ErrCodeInactive
	}
	if accessCode.IsExpired() {
		return nil, ErrCodeExpired
	}

	accessCode, err = s.repo.Consume(code, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCodeExhausted) {
			return nil, ErrCodeExhausted
		}
		return nil, fmt.Errorf("failed to consume access code: %w", err)
	}

	tracks := []model.Track(accessCode.TrackNames)
	granted, err := s.entitlements.Grant(userID, tracks, model.PurchaseSourceAccessCode, accessCode.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to grant tracks for code: %w", err)
	}

	slog.Info("access code redeemed", "code", code, "user_id", userID, "granted", len(granted))
	return tracks, nil
}

func (s *AccessCodeService) List() ([]*model.AccessCode, error) {
	codes, err := s.repo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list access codes: %w", err)
	}
	return codes, nil
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	_, err := rand.Read(buf)
	if err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}
	return string(buf), nil
}
