package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/thirtyapp/thirty/internal/api"
	"github.com/thirtyapp/thirty/internal/ctxkeys"
	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/service"
	"github.com/thirtyapp/thirty/internal/service/payment"
)

const maxWebhookBytes = 1 << 20

type paymentsHandler struct {
	provider     payment.Provider
	fulfilment   *service.FulfilmentService
	entitlements *service.EntitlementService
}

func NewPaymentsHandler(
	provider payment.Provider,
	fulfilment *service.FulfilmentService,
	entitlements *service.EntitlementService,
) *paymentsHandler {
	return &paymentsHandler{
		provider:     provider,
		fulfilment:   fulfilment,
		entitlements: entitlements,
	}
}

func (h *paymentsHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	tracks, err := h.entitlements.Tracks(user.ID)
	if err != nil {
		api.Internal(w, err)
		return
	}

	api.JSON(w, http.StatusOK, map[string]any{"tracks": trackNames(tracks)})
}

type purchaseRequest struct {
	Track string `json:"track"`
}

func (h *paymentsHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	req, tracks, ok := h.decodePurchasable(w, r)
	if !ok {
		return
	}
	if !h.requireNotOwned(w, user.ID, tracks) {
		return
	}

	url, err := h.provider.CreateCheckoutURL(user.ID, user.Email, req.Track)
	if err != nil {
		api.Error(w, http.StatusBadGateway, api.CodeProviderError, "payment provider rejected the checkout")
		slog.Error("checkout creation failed", "error", err, "user_id", user.ID)
		return
	}

	api.JSON(w, http.StatusOK, map[string]string{"url": url})
}

type paymentIntentPayload struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
}

// CreateIntent prices only what the user is missing: a bundle purchase
// by someone who already owns a track pays for the remainder, never for
// tracks they hold.
func (h *paymentsHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	_, tracks, ok := h.decodePurchasable(w, r)
	if !ok {
		return
	}

	remaining, err := h.entitlements.Unowned(user.ID, tracks)
	if err != nil {
		api.Internal(w, err)
		return
	}
	if len(remaining) == 0 {
		api.Error(w, http.StatusConflict, api.CodeAlreadyPurchased, "you already own this")
		return
	}

	ref, clientSecret, err := h.provider.CreatePaymentIntent(user.ID, user.Email, remaining)
	if err != nil {
		if errors.Is(err, payment.ErrNotSupported) {
			api.Error(w, http.StatusBadRequest, api.CodeProviderError, "embedded payments are not supported, use checkout")
			return
		}
		api.Error(w, http.StatusBadGateway, api.CodeProviderError, "payment provider rejected the payment")
		slog.Error("payment intent creation failed", "error", err, "user_id", user.ID)
		return
	}

	api.JSON(w, http.StatusOK, paymentIntentPayload{PaymentIntentID: ref, ClientSecret: clientSecret})
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

// ProcessPaymentIntent is the client-confirmed fulfilment path: after the
// embedded form confirms, the client posts the intent id and we verify it
// with the provider before granting anything. The webhook covers the case
// where the client never comes back.
func (h *paymentsHandler) ProcessPaymentIntent(w http.ResponseWriter, r *http.Request) {
	h.verifyAndFulfil(w, r)
}

// Verify is manual recovery for a single payment reference. Same
// semantics as ProcessPaymentIntent; a separate endpoint so support can
// point users at it without re-running a payment flow.
func (h *paymentsHandler) Verify(w http.ResponseWriter, r *http.Request) {
	h.verifyAndFulfil(w, r)
}

func (h *paymentsHandler) verifyAndFulfil(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req confirmPaymentRequest
	err := api.Decode(r, &req)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}
	if req.PaymentIntentID == "" {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, "paymentIntentId is required")
		return
	}

	pay, err := h.provider.Payment(req.PaymentIntentID)
	if err != nil {
		if errors.Is(err, payment.ErrNotSupported) {
			api.Error(w, http.StatusBadRequest, api.CodeProviderError, "payment verification is not supported by this provider")
			return
		}
		api.Error(w, http.StatusBadGateway, api.CodeProviderError, "could not verify the payment")
		slog.Error("payment verification failed", "error", err, "user_id", user.ID)
		return
	}

	// The payment must belong to the caller; a leaked intent id must not
	// grant tracks to someone else.
	if pay.UserID != user.ID {
		api.Error(w, http.StatusForbidden, api.CodeForbidden, "this payment belongs to a different account")
		return
	}
	if !pay.Succeeded {
		api.Error(w, http.StatusBadRequest, api.CodeProviderError, "payment has not succeeded")
		return
	}

	err = h.fulfilment.Fulfil(user.ID, pay.Tracks, h.provider.Name(), pay.Ref)
	if err != nil {
		api.Internal(w, err)
		return
	}

	api.JSON(w, http.StatusOK, map[string]any{"tracks": trackNames(pay.Tracks)})
}

// Recover sweeps the provider's payment history for the caller and
// fulfils any succeeded payment that never made it into the purchase
// record.
func (h *paymentsHandler) Recover(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	payments, err := h.provider.PaymentsForUser(user.ID)
	if err != nil {
		if errors.Is(err, payment.ErrNotSupported) {
			api.Error(w, http.StatusBadRequest, api.CodeProviderError, "payment recovery is not supported by this provider")
			return
		}
		api.Error(w, http.StatusBadGateway, api.CodeProviderError, "could not list payments")
		slog.Error("payment recovery failed", "error", err, "user_id", user.ID)
		return
	}

	var recovered []model.Track
	for _, pay := range payments {
		if !pay.Succeeded || len(pay.Tracks) == 0 {
			continue
		}
		err = h.fulfilment.Fulfil(user.ID, pay.Tracks, h.provider.Name(), pay.Ref)
		if err != nil {
			api.Internal(w, err)
			return
		}
		recovered = append(recovered, pay.Tracks...)
	}

	api.JSON(w, http.StatusOK, map[string]any{"tracks": trackNames(recovered)})
}

// Webhook is the provider-facing fulfilment path. Unauthenticated; trust
// comes from the provider's signature, verified inside HandleWebhook.
func (h *paymentsHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, "failed to read webhook payload")
		return
	}

	err = h.provider.HandleWebhook(payload, r.Header)
	if err != nil {
		// Non-2xx makes the provider redeliver.
		slog.Error("webhook processing failed", "error", err, "provider", h.provider.Name())
		api.Error(w, http.StatusBadRequest, api.CodeProviderError, "webhook rejected")
		return
	}

	api.Message(w, http.StatusOK, "ok")
}

func (h *paymentsHandler) decodePurchasable(w http.ResponseWriter, r *http.Request) (purchaseRequest, []model.Track, bool) {
	var req purchaseRequest
	err := api.Decode(r, &req)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return req, nil, false
	}

	tracks, err := model.ExpandPurchasable(req.Track)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return req, nil, false
	}

	return req, tracks, true
}

func (h *paymentsHandler) requireNotOwned(w http.ResponseWriter, userID string, tracks []model.Track) bool {
	owned, err := h.entitlements.OwnsAll(userID, tracks)
	if err != nil {
		api.Internal(w, err)
		return false
	}
	if owned {
		api.Error(w, http.StatusConflict, api.CodeAlreadyPurchased, "you already own this")
		return false
	}
	return true
}
