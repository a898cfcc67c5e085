package handler

import (
	"errors"
	"net/http"

	"github.com/thirtyapp/thirty/internal/api"
	"github.com/thirtyapp/thirty/internal/ctxkeys"
	"github.com/thirtyapp/thirty/internal/service"
)

const maxAvatarUploadBytes = 5 << 20 // matches validation.ValidateAvatar

type userHandler struct {
	userService    *service.UserService
	profileService *service.ProfileService
	fileService    *service.FileService
	entitlements   *service.EntitlementService
	journalService *service.JournalService
}

func NewUserHandler(
	userService *service.UserService,
	profileService *service.ProfileService,
	fileService *service.FileService,
	entitlements *service.EntitlementService,
	journalService *service.JournalService,
) *userHandler {
	return &userHandler{
		userService:    userService,
		profileService: profileService,
		fileService:    fileService,
		entitlements:   entitlements,
		journalService: journalService,
	}
}

type accountPayload struct {
	User        userPayload         `json:"user"`
	Profile     profilePayload      `json:"profile"`
	Tracks      []string            `json:"tracks"`
	Completions []completionPayload `json:"completions"`
}

func (h *userHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	profile, err := h.profileService.ByUserID(user.ID)
	if err != nil {
		api.Internal(w, err)
		return
	}

	tracks, err := h.entitlements.Tracks(user.ID)
	if err != nil {
		api.Internal(w, err)
		return
	}

	completions, err := h.journalService.Completions(user.ID)
	if err != nil {
		api.Internal(w, err)
		return
	}

	completionPayloads := make([]completionPayload, len(completions))
	for i, c := range completions {
		completionPayloads[i] = renderCompletion(c)
	}

	api.JSON(w, http.StatusOK, accountPayload{
		User:        renderUser(user),
		Profile:     renderProfile(profile),
		Tracks:      trackNames(tracks),
		Completions: completionPayloads,
	})
}

type updateProfileRequest struct {
	Name string `json:"name"`
}

func (h *userHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req updateProfileRequest
	err := api.Decode(r, &req)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	profile, err := h.profileService.UpdateName(user.ID, req.Name)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	api.JSON(w, http.StatusOK, renderProfile(profile))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *userHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req changePasswordRequest
	err := api.Decode(r, &req)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	err = h.userService.ChangePassword(user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrWrongPassword) {
			api.Error(w, http.StatusUnauthorized, api.CodeUnauthorized, "current password is incorrect")
			return
		}
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	api.Message(w, http.StatusOK, "password changed")
}

func (h *userHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarUploadBytes+4096)
	err := r.ParseMultipartForm(maxAvatarUploadBytes)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, "avatar upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, "avatar file is required")
		return
	}
	defer file.Close()

	profile, err := h.fileService.UploadAvatar(r.Context(), user.ID, file, header)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	api.JSON(w, http.StatusOK, renderProfile(profile))
}

func (h *userHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.fileService.DeleteAvatar(r.Context(), user.ID)
	if err != nil {
		api.Internal(w, err)
		return
	}

	api.Message(w, http.StatusOK, "avatar removed")
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

func (h *userHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req deleteAccountRequest
	err := api.Decode(r, &req)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	err = h.userService.DeleteAccount(user.ID, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrWrongPassword) {
			api.Error(w, http.StatusUnauthorized, api.CodeUnauthorized, "password is incorrect")
			return
		}
		api.Internal(w, err)
		return
	}

	api.Message(w, http.StatusOK, "account deleted")
}
