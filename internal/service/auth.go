package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/repository"
	"github.com/thirtyapp/thirty/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type AuthService struct {
	userRepository           repository.UserRepository
	profileRepository        repository.ProfileRepository
	tokenRepository          repository.TokenRepository
	emailService             *EmailService
	jwtSecret                string
	jwtExpiry                time.Duration
	tokenPasswordResetExpiry time.Duration
}

func NewAuthService(
	userRepository repository.UserRepository,
	profileRepository repository.ProfileRepository,
	tokenRepository repository.TokenRepository,
	emailService *EmailService,
	jwtSecret string,
	jwtExpiry time.Duration,
	tokenPasswordResetExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepository:           userRepository,
		profileRepository:        profileRepository,
		tokenRepository:          tokenRepository,
		emailService:             emailService,
		jwtSecret:                jwtSecret,
		jwtExpiry:                jwtExpiry,
		tokenPasswordResetExpiry: tokenPasswordResetExpiry,
	}
}

// Signup creates the user together with an empty profile. The welcome
// email is best effort; signup does not fail on a mail outage.
func (s *AuthService) Signup(email, password, name string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, err
	}
	err = validation.ValidatePassword(password)
	if err != nil {
		return nil, err
	}
	if name != "" {
		err = validation.ValidateName(name)
		if err != nil {
			return nil, err
		}
	}

	hashedPassword, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now(),
	}

	err = s.userRepository.Create(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	profile := &model.Profile{
		UserID:    user.ID,
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	err = s.profileRepository.Create(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	err = s.emailService.SendWelcomeEmail(user.Email, name)
	if err != nil {
		slog.Warn("failed to send welcome email", "error", err, "user_id", user.ID)
	}

	slog.Info("user signed up", "user_id", user.ID, "email", user.Email)
	return user, nil
}

func (s *AuthService) Login(email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = s.ComparePassword(password, user.PasswordHash)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func (s *AuthService) GenerateJWT(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// ForgotPassword always reports success to the caller so the endpoint
// cannot be used to probe which emails have accounts.
func (s *AuthService) ForgotPassword(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			slog.Info("password reset requested for unknown email", "email", email)
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	err = s.tokenRepository.DeleteByUserAndType(user.ID, model.TokenTypePasswordReset)
	if err != nil {
		slog.Warn("failed to delete old password reset tokens", "error", err, "user_id", user.ID)
	}

	resetToken, err := s.GenerateToken()
	if err != nil {
		return err
	}

	token := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypePasswordReset,
		Token:     resetToken,
		ExpiresAt: time.Now().Add(s.tokenPasswordResetExpiry),
	}
	err = s.tokenRepository.Create(token)
	if err != nil {
		return err
	}

	name := ""
	profile, err := s.profileRepository.ByUserID(user.ID)
	if err == nil {
		name = profile.Name
	}

	err = s.emailService.SendPasswordResetEmail(user.Email, resetToken, name)
	if err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	return nil
}

// ResetPassword consumes the reset token and sets the new password. The
// consume is atomic, so a token can only ever reset one password.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	err := validation.ValidatePassword(newPassword)
	if err != nil {
		return err
	}

	tokenModel, err := s.tokenRepository.ConsumeToken(token)
	if err != nil {
		return ErrInvalidToken
	}
	if tokenModel.Type != model.TokenTypePasswordReset || tokenModel.IsExpired() {
		return ErrInvalidToken
	}

	user, err := s.userRepository.ByID(tokenModel.UserID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	hashedPassword, err := s.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = hashedPassword
	err = s.userRepository.Update(user)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password reset", "user_id", user.ID)
	return nil
}

// CompleteOnboarding records the user's display name and marks the
// first-run flow as done.
func (s *AuthService) CompleteOnboarding(userID, name string) (*model.Profile, error) {
	err := validation.ValidateName(name)
	if err != nil {
		return nil, err
	}

	err = s.profileRepository.UpdateName(userID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to update name: %w", err)
	}

	err = s.profileRepository.CompleteOnboarding(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete onboarding: %w", err)
	}

	return s.profileRepository.ByUserID(userID)
}
