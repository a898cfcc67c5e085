package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/thirtyapp/thirty/internal/api"
	"github.com/thirtyapp/thirty/internal/ctxkeys"
	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/service"
)

type adminHandler struct {
	accessCodeService *service.AccessCodeService
}

func NewAdminHandler(accessCodeService *service.AccessCodeService) *adminHandler {
	return &adminHandler{accessCodeService: accessCodeService}
}

type generateCodeRequest struct {
	TrackNames []string   `json:"trackNames"`
	UsageLimit int        `json:"usageLimit"`
	ExpiresAt  *time.Time `json:"expiresAt"`
}

func (h *adminHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req generateCodeRequest
	err := api.Decode(r, &req)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	tracks := make([]model.Track, 0, len(req.TrackNames))
	for _, name := range req.TrackNames {
		track, err := model.ParseTrack(name)
		if err != nil {
			api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
			return
		}
		tracks = append(tracks, track)
	}

	code, err := h.accessCodeService.Generate(tracks, req.UsageLimit, req.ExpiresAt, user.ID)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	api.JSON(w, http.StatusCreated, renderAccessCode(code))
}

func (h *adminHandler) Codes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.accessCodeService.List()
	if err != nil {
		api.Internal(w, err)
		return
	}

	payloads := make([]accessCodePayload, len(codes))
	for i, c := range codes {
		payloads[i] = renderAccessCode(c)
	}

	api.JSON(w, http.StatusOK, payloads)
}

type redeemCodeRequest struct {
	Code string `json:"code"`
}

func (h *adminHandler) RedeemCode(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req redeemCodeRequest
	err := api.Decode(r, &req)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	tracks, err := h.accessCodeService.Redeem(user.ID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeNotFound):
			api.Error(w, http.StatusNotFound, api.CodeCodeNotFound, "access code not found")
		case errors.Is(err, service.ErrCodeInactive):
			api.Error(w, http.StatusConflict, api.CodeCodeInactive, "access code has been deactivated")
		case errors.Is(err, service.ErrCodeExpired):
			api.Error(w, http.StatusConflict, api.CodeCodeExpired, "access code has expired")
		case errors.Is(err, service.ErrCodeExhausted):
			api.Error(w, http.StatusConflict, api.CodeCodeExhausted, "access code has no uses left")
		default:
			api.Internal(w, err)
		}
		return
	}

	api.JSON(w, http.StatusOK, map[string]any{"tracks": trackNames(tracks)})
}
