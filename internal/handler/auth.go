package handler

import (
	"errors"
	"net/http"

	"github.com/thirtyapp/thirty/internal/api"
	"github.com/thirtyapp/thirty/internal/ctxkeys"
	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/service"
)

type authHandler struct {
	authService    *service.AuthService
	profileService *service.ProfileService
}

func NewAuthHandler(authService *service.AuthService, profileService *service.ProfileService) *authHandler {
	return &authHandler{
		authService:    authService,
		profileService: profileService,
	}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type credentialsPayload struct {
	Token   string         `json:"token"`
	User    userPayload    `json:"user"`
	Profile profilePayload `json:"profile"`
}

func (h *authHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	err := api.Decode(r, &req)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	user, err := h.authService.Signup(req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			api.Error(w, http.StatusConflict, api.CodeConflict, "an account with this email already exists")
			return
		}
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	h.respondWithCredentials(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	err := api.Decode(r, &req)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			api.Error(w, http.StatusUnauthorized, api.CodeUnauthorized, "invalid email or password")
			return
		}
		api.Internal(w, err)
		return
	}

	h.respondWithCredentials(w, http.StatusOK, user)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *authHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	err := api.Decode(r, &req)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	err = h.authService.ForgotPassword(req.Email)
	if err != nil {
		api.Internal(w, err)
		return
	}

	// Same response whether or not the email exists.
	api.Message(w, http.StatusOK, "if that email has an account, a reset link is on its way")
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *authHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	err := api.Decode(r, &req)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	err = h.authService.ResetPassword(req.Token, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			api.Error(w, http.StatusBadRequest, api.CodeValidation, "invalid or expired reset token")
			return
		}
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	api.Message(w, http.StatusOK, "password updated, you can log in now")
}

type onboardingRequest struct {
	Name string `json:"name"`
}

func (h *authHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req onboardingRequest
	err := api.Decode(r, &req)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	profile, err := h.authService.CompleteOnboarding(user.ID, req.Name)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	api.JSON(w, http.StatusOK, renderProfile(profile))
}

func (h *authHandler) respondWithCredentials(w http.ResponseWriter, status int, user *model.User) {
	token, err := h.authService.GenerateJWT(user)
	if err != nil {
		api.Internal(w, err)
		return
	}

	profile, err := h.profileService.ByUserID(user.ID)
	if err != nil {
		api.Internal(w, err)
		return
	}

	api.JSON(w, status, credentialsPayload{
		Token:   token,
		User:    renderUser(user),
		Profile: renderProfile(profile),
	})
}
