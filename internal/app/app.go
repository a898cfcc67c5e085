package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/thirtyapp/thirty/internal/config"
	"github.com/thirtyapp/thirty/internal/db"
	"github.com/thirtyapp/thirty/internal/repository"
	"github.com/thirtyapp/thirty/internal/service"
	"github.com/thirtyapp/thirty/internal/service/payment"
	"github.com/thirtyapp/thirty/internal/storage"
)

type App struct {
	Cfg                *config.Config
	DB                 *sqlx.DB
	AuthService        *service.AuthService
	UserService        *service.UserService
	ProfileService     *service.ProfileService
	EmailService       *service.EmailService
	FileService        *service.FileService
	EntitlementService *service.EntitlementService
	FulfilmentService  *service.FulfilmentService
	JournalService     *service.JournalService
	ContentService     *service.ContentService
	AccessCodeService  *service.AccessCodeService
	PaymentProvider    payment.Provider
}

func New(cfg *config.Config) (*App, error) {
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	profileRepository := repository.NewProfileRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	fileRepository := repository.NewFileRepository(database)
	purchaseRepository := repository.NewPurchaseRepository(database)
	entryRepository := repository.NewEntryRepository(database)
	accessCodeRepository := repository.NewAccessCodeRepository(database)

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	fileService := service.NewFileService(fileRepository, profileRepository, fileStorage)
	entitlementService := service.NewEntitlementService(purchaseRepository)
	fulfilmentService := service.NewFulfilmentService(entitlementService, userRepository, profileRepository, emailService)
	authService := service.NewAuthService(
		userRepository,
		profileRepository,
		tokenRepository,
		emailService,
		cfg.JWTSecret,
		cfg.JWTExpiry,
		cfg.TokenPasswordResetExpiry,
	)
	userService := service.NewUserService(userRepository, profileRepository, authService, emailService)
	profileService := service.NewProfileService(profileRepository, fileStorage)
	journalService := service.NewJournalService(profileRepository, entryRepository, entitlementService)
	contentService := service.NewContentService(cfg.ContentPath)
	accessCodeService := service.NewAccessCodeService(accessCodeRepository, entitlementService)

	paymentProvider, err := payment.NewProvider(cfg, fulfilmentService, userService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment provider: %v", err)
	}

	return &App{
		Cfg:                cfg,
		DB:                 database,
		AuthService:        authService,
		UserService:        userService,
		ProfileService:     profileService,
		EmailService:       emailService,
		FileService:        fileService,
		EntitlementService: entitlementService,
		FulfilmentService:  fulfilmentService,
		JournalService:     journalService,
		ContentService:     contentService,
		AccessCodeService:  accessCodeService,
		PaymentProvider:    paymentProvider,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
