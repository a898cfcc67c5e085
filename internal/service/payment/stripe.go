package payment

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v81"
	checkoutsession "github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/webhook"
	"github.com/thirtyapp/thirty/internal/config"
	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/service"
)

type StripeProvider struct {
	cfg        *config.Config
	fulfilment *service.FulfilmentService
	users      *service.UserService
}

func NewStripeProvider(cfg *config.Config, fulfilment *service.FulfilmentService, users *service.UserService) *StripeProvider {
	stripe.Key = cfg.StripeSecretKey

	slog.Info("stripe provider initialized", "app_env", cfg.AppEnv)

	return &StripeProvider{
		cfg:        cfg,
		fulfilment: fulfilment,
		users:      users,
	}
}

func (s *StripeProvider) Name() string {
	return model.ProviderStripe
}

func (s *StripeProvider) CreateCheckoutURL(userID, customerEmail, purchasable string) (string, error) {
	tracks, err := model.ExpandPurchasable(purchasable)
	if err != nil {
		return "", err
	}

	priceID := s.cfg.StripePriceIDs[purchasableKey(purchasable)]
	if priceID == "" {
		return "", fmt.Errorf("no price configured for: %s", purchasable)
	}

	successURL := fmt.Sprintf("%s/purchase/success?session_id={CHECKOUT_SESSION_ID}", s.cfg.AppURL)
	cancelURL := fmt.Sprintf("%s/purchase", s.cfg.AppURL)

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(customerEmail),
		Metadata: map[string]string{
			"user_id":     userID,
			"tracks":      tracksMetadata(tracks),
			"purchasable": purchasable,
		},
		AllowPromotionCodes: stripe.Bool(true),
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	slog.Info("stripe checkout created", "user_id", userID, "purchasable", purchasable, "session_id", sess.ID)
	return sess.URL, nil
}

// CreatePaymentIntent creates a payment for an embedded payment form.
// The amount comes from the server-side price table; the client never
// states what it pays.
func (s *StripeProvider) CreatePaymentIntent(userID, customerEmail string, tracks []model.Track) (string, string, error) {
	if len(tracks) == 0 {
		return "", "", fmt.Errorf("no tracks to pay for")
	}

	customerID, err := s.ensureCustomer(userID, customerEmail)
	if err != nil {
		return "", "", err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(intentAmount(tracks)),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		Customer: stripe.String(customerID),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("user_id", userID)
	params.AddMetadata("tracks", tracksMetadata(tracks))

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", "", fmt.Errorf("failed to create payment intent: %w", err)
	}

	slog.Info("stripe payment intent created", "user_id", userID, "tracks", tracksMetadata(tracks), "intent_id", pi.ID)
	return pi.ID, pi.ClientSecret, nil
}

func (s *StripeProvider) Payment(ref string) (*Payment, error) {
	pi, err := paymentintent.Get(ref, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}
	return paymentFromIntent(pi), nil
}

// PaymentsForUser lists the user's payment intents on the Stripe side.
// Used by the recovery sweep when a fulfilment signal was lost.
func (s *StripeProvider) PaymentsForUser(userID string) ([]*Payment, error) {
	user, err := s.users.ByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.HasStripeCustomer() {
		return nil, nil
	}

	params := &stripe.PaymentIntentListParams{
		Customer: stripe.String(*user.StripeCustomerID),
	}
	params.Limit = stripe.Int64(100)

	var payments []*Payment
	iter := paymentintent.List(params)
	for iter.Next() {
		pi := iter.PaymentIntent()
		// Only trust intents this user created.
		if pi.Metadata["user_id"] != userID {
			continue
		}
		payments = append(payments, paymentFromIntent(pi))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list payment intents: %w", err)
	}

	return payments, nil
}

func (s *StripeProvider) HandleWebhook(payload []byte, headers http.Header) error {
	signature := headers.Get("Stripe-Signature")

	// Stripe API versions are backwards compatible; a version mismatch
	// between the SDK and the event is not a verification failure.
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		s.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to verify webhook signature: %w", err)
	}

	slog.Info("stripe webhook received", "event_type", event.Type)

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutSessionCompleted(event.Data.Raw)
	case "payment_intent.succeeded":
		return s.handlePaymentIntentSucceeded(event.Data.Raw)
	default:
		slog.Info("stripe webhook ignored event type", "event_type", event.Type)
		return nil
	}
}

func (s *StripeProvider) handleCheckoutSessionCompleted(data json.RawMessage) error {
	var sess struct {
		ID            string            `json:"id"`
		Customer      string            `json:"customer"`
		PaymentIntent string            `json:"payment_intent"`
		PaymentStatus string            `json:"payment_status"`
		Metadata      map[string]string `json:"metadata"`
	}

	err := json.Unmarshal(data, &sess)
	if err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	userID := sess.Metadata["user_id"]
	if userID == "" {
		slog.Warn("stripe checkout session has no user_id in metadata, skipping")
		return nil
	}
	if sess.PaymentStatus != "paid" {
		slog.Info("stripe checkout session not paid yet, skipping", "session_id", sess.ID)
		return nil
	}

	if sess.Customer != "" {
		err = s.users.SetStripeCustomerID(userID, sess.Customer)
		if err != nil {
			slog.Warn("failed to store stripe customer id", "error", err, "user_id", userID)
		}
	}

	ref := sess.PaymentIntent
	if ref == "" {
		ref = sess.ID
	}

	return s.fulfilment.Fulfil(userID, parseTracksMetadata(sess.Metadata["tracks"]), model.ProviderStripe, ref)
}

func (s *StripeProvider) handlePaymentIntentSucceeded(data json.RawMessage) error {
	var pi struct {
		ID       string            `json:"id"`
		Metadata map[string]string `json:"metadata"`
	}

	err := json.Unmarshal(data, &pi)
	if err != nil {
		return fmt.Errorf("failed to parse payment intent: %w", err)
	}

	userID := pi.Metadata["user_id"]
	if userID == "" {
		// Checkout-session payments carry metadata on the session, not
		// the intent. The session event fulfils those.
		slog.Info("stripe payment intent has no user_id in metadata, skipping", "intent_id", pi.ID)
		return nil
	}

	return s.fulfilment.Fulfil(userID, parseTracksMetadata(pi.Metadata["tracks"]), model.ProviderStripe, pi.ID)
}

// ensureCustomer returns the user's Stripe customer, creating and
// persisting one on first use so recovery can list payments later.
func (s *StripeProvider) ensureCustomer(userID, customerEmail string) (string, error) {
	user, err := s.users.ByID(userID)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user.HasStripeCustomer() {
		return *user.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(customerEmail),
	}
	params.AddMetadata("user_id", userID)

	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}

	err = s.users.SetStripeCustomerID(userID, cust.ID)
	if err != nil {
		return "", err
	}

	return cust.ID, nil
}

func paymentFromIntent(pi *stripe.PaymentIntent) *Payment {
	return &Payment{
		Ref:       pi.ID,
		UserID:    pi.Metadata["user_id"],
		Tracks:    parseTracksMetadata(pi.Metadata["tracks"]),
		Succeeded: pi.Status == stripe.PaymentIntentStatusSucceeded,
	}
}

// intentAmount prices a set of tracks, capped at the bundle price so a
// partially-owned bundle never costs more than the full one.
func intentAmount(tracks []model.Track) int64 {
	var amount int64
	for _, t := range tracks {
		amount += model.TrackPriceCents[t]
	}
	if amount > model.BundlePriceCents {
		return model.BundlePriceCents
	}
	return amount
}

func purchasableKey(purchasable string) string {
	if strings.EqualFold(purchasable, model.BundleAllAccess) {
		return model.BundleAllAccess
	}
	track, err := model.ParseTrack(purchasable)
	if err != nil {
		return strings.ToLower(purchasable)
	}
	return track.Slug()
}

func tracksMetadata(tracks []model.Track) string {
	names := make([]string, len(tracks))
	for i, t := range tracks {
		names[i] = string(t)
	}
	return strings.Join(names, ",")
}

func parseTracksMetadata(value string) []model.Track {
	var tracks []model.Track
	for _, name := range strings.Split(value, ",") {
		track, err := model.ParseTrack(strings.TrimSpace(name))
		if err != nil {
			continue
		}
		tracks = append(tracks, track)
	}
	return tracks
}
