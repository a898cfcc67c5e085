package service

import (
	"fmt"
	"log/slog"

	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/repository"
)

// FulfilmentService turns a confirmed payment into durable entitlements.
// It is called from both fulfilment paths: the provider webhook and the
// client-confirmed payment handler. Replays are no-ops because the grant
// itself is idempotent.
type FulfilmentService struct {
	entitlements *EntitlementService
	userRepo     repository.UserRepository
	profileRepo  repository.ProfileRepository
	emailService *EmailService
}

func NewFulfilmentService(
	entitlements *EntitlementService,
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	emailService *EmailService,
) *FulfilmentService {
	return &FulfilmentService{
		entitlements: entitlements,
		userRepo:     userRepo,
		profileRepo:  profileRepo,
		emailService: emailService,
	}
}

// Fulfil grants every track the payment covered. A failure here is
// reported to the caller so the webhook is redelivered or the client
// retries; a paid-for entitlement is never silently dropped.
func (s *FulfilmentService) Fulfil(userID string, tracks []model.Track, provider, paymentRef string) error {
	if len(tracks) == 0 {
		return fmt.Errorf("payment %s carries no tracks to fulfil", paymentRef)
	}

	granted, err := s.entitlements.Grant(userID, tracks, provider, paymentRef)
	if err != nil {
		return fmt.Errorf("failed to fulfil payment %s: %w", paymentRef, err)
	}

	if len(granted) == 0 {
		// Replay of an already-fulfilled payment.
		return nil
	}

	s.sendReceipt(userID, granted)
	return nil
}

func (s *FulfilmentService) sendReceipt(userID string, tracks []model.Track) {
	user, err := s.userRepo.ByID(userID)
	if err != nil {
		slog.Warn("failed to load user for receipt email", "error", err, "user_id", userID)
		return
	}

	name := ""
	profile, err := s.profileRepo.ByUserID(userID)
	if err == nil {
		name = profile.Name
	}

	err = s.emailService.SendPurchaseReceiptEmail(user.Email, name, tracks)
	if err != nil {
		// The entitlement is already durable; a receipt failure is not
		// a fulfilment failure.
		slog.Warn("failed to send purchase receipt", "error", err, "user_id", userID)
	}
}
