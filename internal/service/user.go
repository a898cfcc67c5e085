package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/repository"
	"github.com/thirtyapp/thirty/internal/validation"
)

var ErrWrongPassword = errors.New("current password is incorrect")

type UserService struct {
	userRepository    repository.UserRepository
	profileRepository repository.ProfileRepository
	authService       *AuthService
	emailService      *EmailService
}

func NewUserService(
	userRepository repository.UserRepository,
	profileRepository repository.ProfileRepository,
	authService *AuthService,
	emailService *EmailService,
) *UserService {
	return &UserService{
		userRepository:    userRepository,
		profileRepository: profileRepository,
		authService:       authService,
		emailService:      emailService,
	}
}

func (s *UserService) ByID(id string) (*model.User, error) {
	return s.userRepository.ByID(id)
}

func (s *UserService) SetStripeCustomerID(userID, customerID string) error {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	user.StripeCustomerID = &customerID
	err = s.userRepository.Update(user)
	if err != nil {
		return fmt.Errorf("failed to save stripe customer id: %w", err)
	}
	return nil
}

// ChangePassword requires the current password; a stolen bearer token
// alone cannot lock the owner out.
func (s *UserService) ChangePassword(userID, currentPassword, newPassword string) error {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	err = s.authService.ComparePassword(currentPassword, user.PasswordHash)
	if err != nil {
		return ErrWrongPassword
	}

	err = validation.ValidatePassword(newPassword)
	if err != nil {
		return err
	}

	hashedPassword, err := s.authService.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = hashedPassword
	err = s.userRepository.Update(user)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password changed", "user_id", userID)
	return nil
}

// DeleteAccount removes the user row; profiles, purchases, entries,
// tokens and files go with it via ON DELETE CASCADE.
func (s *UserService) DeleteAccount(userID, password string) error {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	err = s.authService.ComparePassword(password, user.PasswordHash)
	if err != nil {
		return ErrWrongPassword
	}

	name := ""
	profile, err := s.profileRepository.ByUserID(userID)
	if err == nil {
		name = profile.Name
	}

	err = s.userRepository.Delete(userID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	err = s.emailService.SendAccountDeletedEmail(user.Email, name)
	if err != nil {
		slog.Warn("failed to send account deleted email", "error", err, "user_id", userID)
	}

	slog.Info("account deleted", "user_id", userID)
	return nil
}
