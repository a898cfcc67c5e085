package routes

import (
	"net/http"

	"github.com/thirtyapp/thirty/internal/app"
	"github.com/thirtyapp/thirty/internal/handler"
	"github.com/thirtyapp/thirty/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	auth := handler.NewAuthHandler(app.AuthService, app.ProfileService)
	user := handler.NewUserHandler(app.UserService, app.ProfileService, app.FileService, app.EntitlementService, app.JournalService)
	journal := handler.NewJournalHandler(app.JournalService, app.ContentService, app.EntitlementService)
	payments := handler.NewPaymentsHandler(app.PaymentProvider, app.FulfilmentService, app.EntitlementService)
	admin := handler.NewAdminHandler(app.AccessCodeService)

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /api/healthz", health.Healthz)
	mux.HandleFunc("POST /api/webhooks/payment", payments.Webhook)

	// Auth flow (rate limited)
	rateLimiter := middleware.RateLimitAuth()
	mux.HandleFunc("POST /api/auth/signup", rateLimiter(auth.Signup))
	mux.HandleFunc("POST /api/auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /api/auth/forgot-password", rateLimiter(auth.ForgotPassword))
	mux.HandleFunc("POST /api/auth/reset-password", rateLimiter(auth.ResetPassword))
	mux.HandleFunc("POST /api/auth/onboarding", middleware.RequireAuth(auth.CompleteOnboarding))

	// Account
	mux.HandleFunc("GET /api/user/profile", middleware.RequireAuth(user.Profile))
	mux.HandleFunc("PATCH /api/user/profile", middleware.RequireAuth(user.UpdateProfile))
	mux.HandleFunc("POST /api/user/password", middleware.RequireAuth(user.ChangePassword))
	mux.HandleFunc("POST /api/user/avatar", middleware.RequireAuth(user.UploadAvatar))
	mux.HandleFunc("DELETE /api/user/avatar", middleware.RequireAuth(user.DeleteAvatar))
	mux.HandleFunc("DELETE /api/user", middleware.RequireAuth(user.DeleteAccount))

	// Purchases and payments
	mux.HandleFunc("GET /api/purchases", middleware.RequireAuth(payments.Purchases))
	mux.HandleFunc("POST /api/payments/create-checkout", middleware.RequireAuth(payments.CreateCheckout))
	mux.HandleFunc("POST /api/payments/create-intent", middleware.RequireAuth(payments.CreateIntent))
	mux.HandleFunc("POST /api/payments/process-payment-intent", middleware.RequireAuth(payments.ProcessPaymentIntent))
	mux.HandleFunc("POST /api/payments/verify", middleware.RequireAuth(payments.Verify))
	mux.HandleFunc("POST /api/payments/recover", middleware.RequireAuth(payments.Recover))

	// Journal
	mux.HandleFunc("POST /api/journal/start-track", middleware.RequireAuth(journal.StartTrack))
	mux.HandleFunc("POST /api/journal/complete-day", middleware.RequireAuth(journal.CompleteDay))
	mux.HandleFunc("POST /api/journal/entry", middleware.RequireAuth(journal.SaveEntry))
	mux.HandleFunc("GET /api/journal/entries/{track}", middleware.RequireAuth(journal.Entries))
	mux.HandleFunc("GET /api/journal/prompt/{track}/{day}", middleware.RequireAuth(journal.Prompt))

	// Admin console
	mux.HandleFunc("POST /api/admin/generate-code", middleware.RequireAdmin(app.Cfg, admin.GenerateCode))
	mux.HandleFunc("GET /api/admin/codes", middleware.RequireAdmin(app.Cfg, admin.Codes))
	mux.HandleFunc("POST /api/admin/redeem-code", middleware.RequireAuth(admin.RedeemCode))

	return middleware.Chain(
		mux,
		middleware.Recover,
		middleware.RequestLogging,
		middleware.AuthMiddleware(app.AuthService, app.UserService, app.ProfileService),
	)
}
