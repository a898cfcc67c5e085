package payment

import (
	"errors"
	"net/http"

	"github.com/thirtyapp/thirty/internal/model"
)

// ErrNotSupported is returned by providers that do not implement an
// optional operation (Polar has no client-side payment intents).
var ErrNotSupported = errors.New("operation not supported by payment provider")

// Payment describes one provider-side payment as far as fulfilment
// cares: who paid, for which tracks, and whether money actually moved.
type Payment struct {
	Ref       string
	UserID    string
	Tracks    []model.Track
	Succeeded bool
}

// Provider is the payment backend behind checkout and fulfilment. Every
// provider verifies and fulfils its own webhooks; the intent-based
// operations are optional.
type Provider interface {
	// Name returns the provider name ("stripe" or "polar").
	Name() string

	// CreateCheckoutURL creates a hosted checkout session for the given
	// purchasable (a track name or the all-access bundle) and returns
	// the URL to redirect the customer to.
	CreateCheckoutURL(userID, customerEmail, purchasable string) (string, error)

	// CreatePaymentIntent creates a payment for exactly the given tracks,
	// confirmed by the client with an embedded payment form. The caller
	// filters out tracks the user already owns; the price covers only what
	// is passed in. Returns the intent reference and the client secret the
	// form needs.
	CreatePaymentIntent(userID, customerEmail string, tracks []model.Track) (ref, clientSecret string, err error)

	// Payment fetches one payment by reference for verification.
	Payment(ref string) (*Payment, error)

	// PaymentsForUser lists the user's payments on the provider side,
	// used to recover entitlements when a webhook or client confirm was
	// lost.
	PaymentsForUser(userID string) ([]*Payment, error)

	// HandleWebhook verifies and processes a webhook delivery.
	HandleWebhook(payload []byte, headers http.Header) error
}
