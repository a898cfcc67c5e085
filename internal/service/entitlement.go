package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/repository"
)

var (
	ErrAlreadyPurchased = errors.New("track already purchased")
)

// EntitlementService owns the purchase record: which tracks a user has
// paid for (or redeemed). Grants are idempotent, so the webhook path and
// the client-confirmed path can both run for the same payment.
type EntitlementService struct {
	repo repository.PurchaseRepository
}

func NewEntitlementService(repo repository.PurchaseRepository) *EntitlementService {
	return &EntitlementService{repo: repo}
}

// Grant adds each track to the user's purchase record, skipping any
// already owned. Returns the tracks that were newly granted.
func (s *EntitlementService) Grant(userID string, tracks []model.Track, provider, paymentRef string) ([]model.Track, error) {
	var granted []model.Track

	for _, track := range tracks {
		purchase := &model.Purchase{
			ID:         uuid.New().String(),
			UserID:     userID,
			Track:      track,
			Provider:   provider,
			PaymentRef: paymentRef,
			CreatedAt:  time.Now(),
		}

		inserted, err := s.repo.Grant(purchase)
		if err != nil {
			return granted, fmt.Errorf("failed to grant track %s: %w", track, err)
		}

		if inserted {
			granted = append(granted, track)
			slog.Info("entitlement granted", "user_id", userID, "track", track, "provider", provider, "payment_ref", paymentRef)
		} else {
			slog.Info("entitlement already granted, skipping", "user_id", userID, "track", track)
		}
	}

	return granted, nil
}

func (s *EntitlementService) Tracks(userID string) ([]model.Track, error) {
	tracks, err := s.repo.Tracks(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return tracks, nil
}

func (s *EntitlementService) Owns(userID string, track model.Track) (bool, error) {
	return s.repo.Owns(userID, track)
}

// OwnsAll reports whether every given track is already owned, used to
// reject a purchase before any payment UI is shown.
func (s *EntitlementService) OwnsAll(userID string, tracks []model.Track) (bool, error) {
	for _, track := range tracks {
		owned, err := s.repo.Owns(userID, track)
		if err != nil {
			return false, err
		}
		if !owned {
			return false, nil
		}
	}
	return true, nil
}

// Unowned filters the given tracks down to the ones the user does not
// own yet, so a partially-owned bundle is only charged for the remainder.
func (s *EntitlementService) Unowned(userID string, tracks []model.Track) ([]model.Track, error) {
	var missing []model.Track
	for _, track := range tracks {
		owned, err := s.repo.Owns(userID, track)
		if err != nil {
			return nil, err
		}
		if !owned {
			missing = append(missing, track)
		}
	}
	return missing, nil
}

func (s *EntitlementService) Purchases(userID string) ([]*model.Purchase, error) {
	return s.repo.ByUserID(userID)
}
