package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	polargo "github.com/polarsource/polar-go"
	"github.com/polarsource/polar-go/models/components"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"
	"github.com/thirtyapp/thirty/internal/config"
	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/service"
)

// PolarProvider sells tracks through Polar's hosted checkout. Polar has
// no client-confirmed payment intents, so the intent operations report
// ErrNotSupported and fulfilment rides entirely on order webhooks.
type PolarProvider struct {
	cfg        *config.Config
	fulfilment *service.FulfilmentService
	client     *polargo.Polar
}

func NewPolarProvider(cfg *config.Config, fulfilment *service.FulfilmentService) *PolarProvider {
	var serverOption polargo.SDKOption
	if cfg.PolarSandboxMode {
		serverOption = polargo.WithServer(polargo.ServerSandbox)
		slog.Info("polar using sandbox mode", "app_env", cfg.AppEnv)
	} else {
		serverOption = polargo.WithServer(polargo.ServerProduction)
		slog.Info("polar using production mode", "app_env", cfg.AppEnv)
	}

	client := polargo.New(
		polargo.WithSecurity(cfg.PolarAPIKey),
		serverOption,
	)

	return &PolarProvider{
		cfg:        cfg,
		fulfilment: fulfilment,
		client:     client,
	}
}

func (p *PolarProvider) Name() string {
	return model.ProviderPolar
}

func (p *PolarProvider) CreateCheckoutURL(userID, customerEmail, purchasable string) (string, error) {
	ctx := context.Background()

	tracks, err := model.ExpandPurchasable(purchasable)
	if err != nil {
		return "", err
	}

	productID := p.cfg.PolarProductIDs[purchasableKey(purchasable)]
	if productID == "" {
		return "", fmt.Errorf("no product configured for: %s", purchasable)
	}

	successURL := fmt.Sprintf("%s/purchase/success", p.cfg.AppURL)

	metadata := map[string]components.CheckoutCreateMetadata{
		"user_id":     components.CreateCheckoutCreateMetadataStr(userID),
		"tracks":      components.CreateCheckoutCreateMetadataStr(tracksMetadata(tracks)),
		"purchasable": components.CreateCheckoutCreateMetadataStr(purchasable),
	}

	res, err := p.client.Checkouts.Create(ctx, components.CheckoutCreate{
		Products:           []string{productID},
		SuccessURL:         polargo.String(successURL),
		CustomerEmail:      polargo.String(customerEmail),
		AllowDiscountCodes: polargo.Bool(true),
		Metadata:           metadata,
	})

	if err != nil {
		return "", fmt.Errorf("failed to create checkout: %w", err)
	}

	if res == nil || res.Checkout == nil {
		return "", fmt.Errorf("checkout response is nil")
	}

	slog.Info("polar checkout created", "user_id", userID, "purchasable", purchasable, "checkout_id", res.Checkout.ID)
	return res.Checkout.URL, nil
}

func (p *PolarProvider) CreatePaymentIntent(userID, customerEmail string, tracks []model.Track) (string, string, error) {
	return "", "", ErrNotSupported
}

func (p *PolarProvider) Payment(ref string) (*Payment, error) {
	return nil, ErrNotSupported
}

func (p *PolarProvider) PaymentsForUser(userID string) ([]*Payment, error) {
	return nil, ErrNotSupported
}

func (p *PolarProvider) HandleWebhook(payload []byte, headers http.Header) error {
	if p.cfg.PolarWebhookSecret == "" {
		slog.Warn("polar no webhook secret configured, skipping signature verification")
	} else {
		wh, err := standardwebhooks.NewWebhookRaw([]byte(p.cfg.PolarWebhookSecret))
		if err != nil {
			return fmt.Errorf("failed to create webhook verifier: %w", err)
		}

		httpHeaders := http.Header{}
		httpHeaders.Set("webhook-id", headers.Get("webhook-id"))
		httpHeaders.Set("webhook-timestamp", headers.Get("webhook-timestamp"))
		httpHeaders.Set("webhook-signature", headers.Get("webhook-signature"))

		err = wh.Verify(payload, httpHeaders)
		if err != nil {
			return fmt.Errorf("invalid webhook signature: %w", err)
		}
	}

	var event struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}

	err := json.Unmarshal(payload, &event)
	if err != nil {
		return fmt.Errorf("failed to parse webhook: %w", err)
	}

	slog.Info("polar webhook received", "event_type", event.Type)

	switch event.Type {
	case "order.created", "order.paid":
		return p.handleOrder(event.Data)
	default:
		slog.Info("polar webhook ignored event type", "event_type", event.Type)
		return nil
	}
}

func (p *PolarProvider) handleOrder(data json.RawMessage) error {
	var order struct {
		ID       string            `json:"id"`
		Paid     bool              `json:"paid"`
		Status   string            `json:"status"`
		Metadata map[string]string `json:"metadata"`
	}

	err := json.Unmarshal(data, &order)
	if err != nil {
		return fmt.Errorf("failed to parse order data: %w", err)
	}

	userID := order.Metadata["user_id"]
	if userID == "" {
		slog.Warn("polar webhook no user_id in order metadata, skipping")
		return nil
	}

	if !order.Paid && order.Status != "paid" {
		slog.Info("polar order not paid yet, skipping", "order_id", order.ID)
		return nil
	}

	return p.fulfilment.Fulfil(userID, parseTracksMetadata(order.Metadata["tracks"]), model.ProviderPolar, order.ID)
}
