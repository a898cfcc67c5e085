package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName      string
	AppEnv       string
	AppURL       string
	Port         string
	SupportEmail string
	ContentPath  string
	AdminEmails  []string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret                string
	JWTExpiry                time.Duration
	TokenPasswordResetExpiry time.Duration

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Payment
	PaymentProvider string // "stripe" or "polar"
	// Payment - Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceIDs      map[string]string // track slug (or "all-access") -> price ID
	// Payment - Polar
	PolarAPIKey        string
	PolarWebhookSecret string
	PolarSandboxMode   bool
	PolarProductIDs    map[string]string // track slug (or "all-access") -> product ID

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.)
	S3Region              string
	S3Bucket              string
	S3AccessKey           string
	S3SecretKey           string
	S3Endpoint            string
	S3PresignExpiryPublic time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:      envString("APP_NAME", "Thirty"),
		AppEnv:       envRequired("APP_ENV"), // 'development' or 'production'
		AppURL:       envRequired("APP_URL"), // base URL for email links and payment redirects
		Port:         envString("PORT", "8090"),
		SupportEmail: envString("SUPPORT_EMAIL", "hello@thirty.app"),
		ContentPath:  envString("CONTENT_PATH", "content"),
		AdminEmails:  envList("ADMIN_EMAILS"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/thirty.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret:                envRequired("JWT_SECRET"),
		JWTExpiry:                envDuration("JWT_EXPIRY", 168*time.Hour),
		TokenPasswordResetExpiry: envDuration("TOKEN_PASSWORD_RESET_EXPIRY", 1*time.Hour),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@thirty.app"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Payment
		PaymentProvider:     envString("PAYMENT_PROVIDER", "stripe"),
		StripeSecretKey:     envString("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: envString("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceIDs:      envPrefixMap("STRIPE_PRICE_ID_"),
		PolarAPIKey:         envString("POLAR_API_KEY", ""),
		PolarWebhookSecret:  envString("POLAR_WEBHOOK_SECRET", ""),
		PolarSandboxMode:    envBool("POLAR_SANDBOX_MODE", envString("APP_ENV", "development") == "development"),
		PolarProductIDs:     envPrefixMap("POLAR_PRODUCT_ID_"),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage (S3-compatible - required for avatar uploads)
		S3Region:              envString("S3_REGION", ""),
		S3Bucket:              envString("S3_BUCKET", ""),
		S3AccessKey:           envString("S3_ACCESS_KEY", ""),
		S3SecretKey:           envString("S3_SECRET_KEY", ""),
		S3Endpoint:            envString("S3_ENDPOINT", ""),
		S3PresignExpiryPublic: envDuration("S3_PRESIGN_EXPIRY_PUBLIC", 168*time.Hour),
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures required services are configured for production
// deployments. Development allows fallback modes (logged emails, no S3).
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
	if cfg.S3Bucket == "" {
		slog.Error("production deployment requires S3_BUCKET for avatar storage")
		os.Exit(1)
	}
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) IsAdmin(email string) bool {
	for _, admin := range c.AdminEmails {
		if strings.EqualFold(admin, email) {
			return true
		}
	}
	return false
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

// envList parses a comma-separated env var into trimmed entries.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envPrefixMap collects PREFIX_MONEY=price_123 style env vars into
// {"money": "price_123"}. Underscores in the suffix become dashes so
// PREFIX_ALL_ACCESS maps to "all-access".
func envPrefixMap(prefix string) map[string]string {
	out := map[string]string{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || v == "" || !strings.HasPrefix(k, prefix) {
			continue
		}
		suffix := strings.TrimPrefix(k, prefix)
		key := strings.ReplaceAll(strings.ToLower(suffix), "_", "-")
		out[key] = v
	}
	return out
}
