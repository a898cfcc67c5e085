package service_test

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/thirtyapp/thirty/internal/db"
	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/repository"
	"github.com/thirtyapp/thirty/internal/service"
)

// testServices wires the full service stack against an in-memory
// database, with email in dev (log-only) mode.
type testServices struct {
	DB           *sqlx.DB
	Users        repository.UserRepository
	Profiles     repository.ProfileRepository
	Tokens       repository.TokenRepository
	Auth         *service.AuthService
	Entitlements *service.EntitlementService
	Fulfilment   *service.FulfilmentService
	Journal      *service.JournalService
	AccessCodes  *service.AccessCodeService
	UserSvc      *service.UserService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	database, err := db.Init("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	// One connection keeps every query on the same in-memory database.
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(database)
	profileRepo := repository.NewProfileRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	purchaseRepo := repository.NewPurchaseRepository(database)
	entryRepo := repository.NewEntryRepository(database)
	accessCodeRepo := repository.NewAccessCodeRepository(database)

	emailService := service.NewEmailService("", "test@example.com", "http://localhost", "Thirty", true)
	entitlements := service.NewEntitlementService(purchaseRepo)
	fulfilment := service.NewFulfilmentService(entitlements, userRepo, profileRepo, emailService)
	auth := service.NewAuthService(
		userRepo, profileRepo, tokenRepo, emailService,
		"test-secret", time.Hour, time.Hour,
	)
	journal := service.NewJournalService(profileRepo, entryRepo, entitlements)
	accessCodes := service.NewAccessCodeService(accessCodeRepo, entitlements)
	userSvc := service.NewUserService(userRepo, profileRepo, auth, emailService)

	return &testServices{
		DB:           database,
		Users:        userRepo,
		Profiles:     profileRepo,
		Tokens:       tokenRepo,
		Auth:         auth,
		Entitlements: entitlements,
		Fulfilment:   fulfilment,
		Journal:      journal,
		AccessCodes:  accessCodes,
		UserSvc:      userSvc,
	}
}

func (ts *testServices) signup(t *testing.T, email string) *model.User {
	t.Helper()
	user, err := ts.Auth.Signup(email, "correct-horse-battery", "Test User")
	require.NoError(t, err)
	return user
}

func (ts *testServices) grant(t *testing.T, userID string, tracks ...model.Track) {
	t.Helper()
	_, err := ts.Entitlements.Grant(userID, tracks, model.ProviderStripe, "pi_test")
	require.NoError(t, err)
}
