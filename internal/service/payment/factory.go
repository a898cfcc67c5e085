package payment

import (
	"fmt"
	"log/slog"

	"github.com/thirtyapp/thirty/internal/config"
	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/service"
)

// NewProvider creates the payment provider selected by configuration.
func NewProvider(cfg *config.Config, fulfilment *service.FulfilmentService, users *service.UserService) (Provider, error) {
	provider := cfg.PaymentProvider

	slog.Info("initializing payment provider", "provider", provider)

	switch provider {
	case model.ProviderStripe:
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("STRIPE_SECRET_KEY is required when using Stripe provider")
		}
		if cfg.StripeWebhookSecret == "" {
			return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when using Stripe provider")
		}
		return NewStripeProvider(cfg, fulfilment, users), nil

	case model.ProviderPolar:
		if cfg.PolarAPIKey == "" {
			return nil, fmt.Errorf("POLAR_API_KEY is required when using Polar provider")
		}
		return NewPolarProvider(cfg, fulfilment), nil

	default:
		return nil, fmt.Errorf("unknown payment provider: %s (supported: stripe, polar)", provider)
	}
}
