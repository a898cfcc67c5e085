package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thirtyapp/thirty/internal/app"
	"github.com/thirtyapp/thirty/internal/config"
	"github.com/thirtyapp/thirty/internal/db"
	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/repository"
	"github.com/thirtyapp/thirty/internal/routes"
	"github.com/thirtyapp/thirty/internal/service"
	"github.com/thirtyapp/thirty/internal/service/payment"
)

// stubProvider fulfils payments from a canned table instead of calling a
// real payment API.
type stubProvider struct {
	fulfilment *service.FulfilmentService
	payments   map[string]*payment.Payment
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) CreateCheckoutURL(userID, customerEmail, purchasable string) (string, error) {
	_, err := model.ExpandPurchasable(purchasable)
	if err != nil {
		return "", err
	}
	return "https://pay.example.com/checkout/test", nil
}

func (s *stubProvider) CreatePaymentIntent(userID, customerEmail string, tracks []model.Track) (string, string, error) {
	ref := fmt.Sprintf("pi_stub_%d", len(s.payments)+1)
	s.payments[ref] = &payment.Payment{Ref: ref, UserID: userID, Tracks: tracks, Succeeded: true}
	return ref, ref + "_secret", nil
}

func (s *stubProvider) Payment(ref string) (*payment.Payment, error) {
	pay, ok := s.payments[ref]
	if !ok {
		return nil, fmt.Errorf("no such payment: %s", ref)
	}
	return pay, nil
}

func (s *stubProvider) PaymentsForUser(userID string) ([]*payment.Payment, error) {
	var out []*payment.Payment
	for _, pay := range s.payments {
		if pay.UserID == userID {
			out = append(out, pay)
		}
	}
	return out, nil
}

func (s *stubProvider) HandleWebhook(payload []byte, headers http.Header) error {
	var event struct {
		UserID string   `json:"user_id"`
		Tracks []string `json:"tracks"`
		Ref    string   `json:"ref"`
	}
	err := json.Unmarshal(payload, &event)
	if err != nil {
		return err
	}
	tracks := make([]model.Track, len(event.Tracks))
	for i, name := range event.Tracks {
		tracks[i], err = model.ParseTrack(name)
		if err != nil {
			return err
		}
	}
	return s.fulfilment.Fulfil(event.UserID, tracks, s.Name(), event.Ref)
}

type testServer struct {
	handler  http.Handler
	app      *app.App
	provider *stubProvider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	database, err := db.Init("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)

	cfg := &config.Config{
		AppEnv:      "development",
		AppName:     "Thirty",
		AppURL:      "http://localhost:8090",
		ContentPath: "../../content",
		JWTSecret:   "test-secret",
		JWTExpiry:   time.Hour,
		AdminEmails: []string{"admin@example.com"},
	}

	userRepo := repository.NewUserRepository(database)
	profileRepo := repository.NewProfileRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	fileRepo := repository.NewFileRepository(database)
	purchaseRepo := repository.NewPurchaseRepository(database)
	entryRepo := repository.NewEntryRepository(database)
	accessCodeRepo := repository.NewAccessCodeRepository(database)

	emailService := service.NewEmailService("", "test@example.com", cfg.AppURL, cfg.AppName, true)
	entitlements := service.NewEntitlementService(purchaseRepo)
	fulfilment := service.NewFulfilmentService(entitlements, userRepo, profileRepo, emailService)
	authService := service.NewAuthService(userRepo, profileRepo, tokenRepo, emailService, cfg.JWTSecret, cfg.JWTExpiry, time.Hour)
	userService := service.NewUserService(userRepo, profileRepo, authService, emailService)
	profileService := service.NewProfileService(profileRepo, nil)
	journalService := service.NewJournalService(profileRepo, entryRepo, entitlements)
	contentService := service.NewContentService(cfg.ContentPath)
	accessCodeService := service.NewAccessCodeService(accessCodeRepo, entitlements)
	provider := &stubProvider{fulfilment: fulfilment, payments: map[string]*payment.Payment{}}

	a := &app.App{
		Cfg:                cfg,
		DB:                 database,
		AuthService:        authService,
		UserService:        userService,
		ProfileService:     profileService,
		EmailService:       emailService,
		FileService:        service.NewFileService(fileRepo, profileRepo, nil),
		EntitlementService: entitlements,
		FulfilmentService:  fulfilment,
		JournalService:     journalService,
		ContentService:     contentService,
		AccessCodeService:  accessCodeService,
		PaymentProvider:    provider,
	}

	return &testServer{handler: routes.SetupRoutes(a), app: a, provider: provider}
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		err := json.NewEncoder(&buf).Encode(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var env envelope
	err := json.Unmarshal(rec.Body.Bytes(), &env)
	require.NoError(t, err, "body: %s", rec.Body.String())
	return rec, env
}

func (ts *testServer) signup(t *testing.T, email string) string {
	t.Helper()

	rec, env := ts.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    email,
		"password": "a-long-enough-secret",
		"name":     "Test User",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func TestSignupLoginAndProfile(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "flow@example.com")

	rec, env := ts.do(t, http.MethodGet, "/api/user/profile", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		User    struct{ Email string }   `json:"user"`
		Profile struct{ Name string }    `json:"profile"`
		Tracks  []string                 `json:"tracks"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "flow@example.com", data.User.Email)
	assert.Empty(t, data.Tracks)

	// No token, no profile.
	rec, env = ts.do(t, http.MethodGet, "/api/user/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", env.Error)
}

func TestPurchaseThenJournalFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "journey@example.com")

	// Starting an unowned track is forbidden.
	rec, env := ts.do(t, http.MethodPost, "/api/journal/start-track", token, map[string]string{"track": "Money"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "track_not_purchased", env.Error)

	// Buy it through the embedded payment flow.
	rec, env = ts.do(t, http.MethodPost, "/api/payments/create-intent", token, map[string]string{"track": "Money"})
	require.Equal(t, http.StatusOK, rec.Code)
	var intent struct {
		PaymentIntentID string `json:"paymentIntentId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &intent))

	rec, _ = ts.do(t, http.MethodPost, "/api/payments/process-payment-intent", token, map[string]string{"paymentIntentId": intent.PaymentIntentID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = ts.do(t, http.MethodGet, "/api/purchases", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var purchases struct{ Tracks []string }
	require.NoError(t, json.Unmarshal(env.Data, &purchases))
	assert.Equal(t, []string{"Money"}, purchases.Tracks)

	// A second purchase of the same track is rejected up front.
	rec, env = ts.do(t, http.MethodPost, "/api/payments/create-intent", token, map[string]string{"track": "Money"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "track_already_purchased", env.Error)

	// Start and complete day 1.
	rec, _ = ts.do(t, http.MethodPost, "/api/journal/start-track", token, map[string]string{"track": "Money"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/journal/entry", token, map[string]any{
		"track":            "Money",
		"day":              1,
		"morningIntention": "look at the number",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = ts.do(t, http.MethodPost, "/api/journal/complete-day", token, map[string]any{"track": "Money", "day": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	// Replaying the same day conflicts.
	rec, env = ts.do(t, http.MethodPost, "/api/journal/complete-day", token, map[string]any{"track": "Money", "day": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "day_mismatch", env.Error)

	rec, env = ts.do(t, http.MethodGet, "/api/journal/entries/Money", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []struct{ Day int }
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	assert.Len(t, entries, 1)
}

func TestCreateIntentChargesOnlyUnownedTracks(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "bundler@example.com")

	rec, env := ts.do(t, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		User struct{ ID string } `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))

	// Money is already owned when the bundle purchase starts.
	rec, _ = ts.do(t, http.MethodPost, "/api/webhooks/payment", "", map[string]any{
		"user_id": data.User.ID,
		"tracks":  []string{"Money"},
		"ref":     "order_bundle_1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = ts.do(t, http.MethodPost, "/api/payments/create-intent", token, map[string]string{"track": "all-access"})
	require.Equal(t, http.StatusOK, rec.Code)
	var intent struct {
		PaymentIntentID string `json:"paymentIntentId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &intent))

	// The intent covers the four missing tracks, not the owned one.
	created := ts.provider.payments[intent.PaymentIntentID]
	require.NotNil(t, created)
	assert.Len(t, created.Tracks, 4)
	assert.NotContains(t, created.Tracks, model.TrackMoney)

	rec, _ = ts.do(t, http.MethodPost, "/api/payments/process-payment-intent", token, map[string]string{"paymentIntentId": intent.PaymentIntentID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = ts.do(t, http.MethodGet, "/api/purchases", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var purchases struct{ Tracks []string }
	require.NoError(t, json.Unmarshal(env.Data, &purchases))
	assert.Len(t, purchases.Tracks, 5)

	// With everything owned, another bundle intent is rejected up front.
	rec, env = ts.do(t, http.MethodPost, "/api/payments/create-intent", token, map[string]string{"track": "all-access"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "track_already_purchased", env.Error)
}

func TestVerifyAndRecoverAreIdempotent(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "patient@example.com")

	rec, env := ts.do(t, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		User struct{ ID string } `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))

	rec, env = ts.do(t, http.MethodPost, "/api/payments/create-intent", token, map[string]string{"track": "Confidence"})
	require.Equal(t, http.StatusOK, rec.Code)
	var intent struct {
		PaymentIntentID string `json:"paymentIntentId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &intent))

	// Verify fulfils the payment, and verifying again changes nothing.
	rec, env = ts.do(t, http.MethodPost, "/api/payments/verify", token, map[string]string{"paymentIntentId": intent.PaymentIntentID})
	require.Equal(t, http.StatusOK, rec.Code)
	var verified struct{ Tracks []string }
	require.NoError(t, json.Unmarshal(env.Data, &verified))
	assert.Equal(t, []string{"Confidence"}, verified.Tracks)

	rec, _ = ts.do(t, http.MethodPost, "/api/payments/verify", token, map[string]string{"paymentIntentId": intent.PaymentIntentID})
	require.Equal(t, http.StatusOK, rec.Code)

	// The recovery sweep re-fulfils the same payment without duplicating it.
	rec, _ = ts.do(t, http.MethodPost, "/api/payments/recover", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rows, err := ts.app.EntitlementService.Purchases(data.User.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.TrackConfidence, rows[0].Track)

	// Someone else's token cannot claim the payment.
	otherToken := ts.signup(t, "impatient@example.com")
	rec, env = ts.do(t, http.MethodPost, "/api/payments/verify", otherToken, map[string]string{"paymentIntentId": intent.PaymentIntentID})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", env.Error)
}

func TestWebhookFulfilment(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "hooked@example.com")

	rec, env := ts.do(t, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		User struct{ ID string } `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))

	// Provider-signed webhook lands without any auth header.
	rec, _ = ts.do(t, http.MethodPost, "/api/webhooks/payment", "", map[string]any{
		"user_id": data.User.ID,
		"tracks":  []string{"Purpose"},
		"ref":     "order_1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Replay is accepted and changes nothing.
	rec, _ = ts.do(t, http.MethodPost, "/api/webhooks/payment", "", map[string]any{
		"user_id": data.User.ID,
		"tracks":  []string{"Purpose"},
		"ref":     "order_1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = ts.do(t, http.MethodGet, "/api/purchases", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var purchases struct{ Tracks []string }
	require.NoError(t, json.Unmarshal(env.Data, &purchases))
	assert.Equal(t, []string{"Purpose"}, purchases.Tracks)
}

func TestAdminCodeEndpoints(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.signup(t, "admin@example.com")
	userToken := ts.signup(t, "member@example.com")

	// Non-admin cannot mint codes.
	rec, env := ts.do(t, http.MethodPost, "/api/admin/generate-code", userToken, map[string]any{
		"trackNames": []string{"Money"},
		"usageLimit": 1,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", env.Error)

	rec, env = ts.do(t, http.MethodPost, "/api/admin/generate-code", adminToken, map[string]any{
		"trackNames": []string{"Money", "Gratitude"},
		"usageLimit": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var code struct{ Code string }
	require.NoError(t, json.Unmarshal(env.Data, &code))

	// Any authenticated user can redeem.
	rec, env = ts.do(t, http.MethodPost, "/api/admin/redeem-code", userToken, map[string]string{"code": code.Code})
	require.Equal(t, http.StatusOK, rec.Code)

	// The second redemption finds the code exhausted.
	rec, env = ts.do(t, http.MethodPost, "/api/admin/redeem-code", adminToken, map[string]string{"code": code.Code})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "code_exhausted", env.Error)

	// Unknown codes are a distinct failure.
	rec, env = ts.do(t, http.MethodPost, "/api/admin/redeem-code", userToken, map[string]string{"code": "NOPE123456"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "code_not_found", env.Error)

	rec, _ = ts.do(t, http.MethodGet, "/api/admin/codes", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodGet, "/api/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestPromptRequiresOwnership(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "reader@example.com")

	rec, env := ts.do(t, http.MethodGet, "/api/journal/prompt/Money/1", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "track_not_purchased", env.Error)

	// Grant through the webhook, then the prompt is readable.
	rec, env = ts.do(t, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		User struct{ ID string } `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))

	rec, _ = ts.do(t, http.MethodPost, "/api/webhooks/payment", "", map[string]any{
		"user_id": data.User.ID,
		"tracks":  []string{"Money"},
		"ref":     "order_prompt",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = ts.do(t, http.MethodGet, "/api/journal/prompt/Money/1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var prompt struct {
		Title   string `json:"title"`
		Morning string `json:"morning"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &prompt))
	assert.NotEmpty(t, prompt.Title)
	assert.NotEmpty(t, prompt.Morning)

	rec, env = ts.do(t, http.MethodGet, "/api/journal/prompt/Money/31", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
