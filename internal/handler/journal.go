package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/thirtyapp/thirty/internal/api"
	"github.com/thirtyapp/thirty/internal/ctxkeys"
	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/repository"
	"github.com/thirtyapp/thirty/internal/service"
)

type journalHandler struct {
	journalService *service.JournalService
	contentService *service.ContentService
	entitlements   *service.EntitlementService
}

func NewJournalHandler(
	journalService *service.JournalService,
	contentService *service.ContentService,
	entitlements *service.EntitlementService,
) *journalHandler {
	return &journalHandler{
		journalService: journalService,
		contentService: contentService,
		entitlements:   entitlements,
	}
}

type startTrackRequest struct {
	Track string `json:"track"`
}

func (h *journalHandler) StartTrack(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req startTrackRequest
	err := api.Decode(r, &req)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	track, err := model.ParseTrack(req.Track)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	profile, err := h.journalService.StartTrack(user.ID, track)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTrackNotPurchased):
			api.Error(w, http.StatusForbidden, api.CodeNotPurchased, "you haven't purchased this track")
		default:
			api.Internal(w, err)
		}
		return
	}

	api.JSON(w, http.StatusOK, renderProfile(profile))
}

type completeDayRequest struct {
	Track string `json:"track"`
	Day   int    `json:"day"`
}

type completeDayPayload struct {
	Profile    profilePayload     `json:"profile"`
	Completion *completionPayload `json:"completion,omitempty"`
}

func (h *journalHandler) CompleteDay(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req completeDayRequest
	err := api.Decode(r, &req)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	track, err := model.ParseTrack(req.Track)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	profile, completion, err := h.journalService.CompleteDay(user.ID, track, req.Day)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDayOutOfRange):
			api.Error(w, http.StatusBadRequest, api.CodeValidation, "day must be between 1 and 30")
		case errors.Is(err, service.ErrNoActiveTrack):
			api.Error(w, http.StatusConflict, api.CodeNoActiveTrack, "this track is not active")
		case errors.Is(err, repository.ErrDayMismatch):
			api.Error(w, http.StatusConflict, api.CodeDayMismatch, "that day is not the current day, reload your progress")
		default:
			api.Internal(w, err)
		}
		return
	}

	payload := completeDayPayload{Profile: renderProfile(profile)}
	if completion != nil {
		c := renderCompletion(completion)
		payload.Completion = &c
	}

	api.JSON(w, http.StatusOK, payload)
}

type saveEntryRequest struct {
	Track             string `json:"track"`
	Day               int    `json:"day"`
	MorningIntention  string `json:"morningIntention"`
	EveningReflection string `json:"eveningReflection"`
}

func (h *journalHandler) SaveEntry(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req saveEntryRequest
	err := api.Decode(r, &req)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	track, err := model.ParseTrack(req.Track)
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	entry, err := h.journalService.SaveEntry(user.ID, track, req.Day, req.MorningIntention, req.EveningReflection)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDayOutOfRange):
			api.Error(w, http.StatusBadRequest, api.CodeValidation, "day is out of range for your progress")
		case errors.Is(err, service.ErrEntryEmpty):
			api.Error(w, http.StatusBadRequest, api.CodeValidation, "entry needs a morning intention or evening reflection")
		case errors.Is(err, service.ErrTrackNotPurchased):
			api.Error(w, http.StatusForbidden, api.CodeNotPurchased, "you haven't purchased this track")
		default:
			api.Internal(w, err)
		}
		return
	}

	api.JSON(w, http.StatusOK, renderEntry(entry))
}

func (h *journalHandler) Entries(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	track, err := model.ParseTrack(r.PathValue("track"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	entries, err := h.journalService.Entries(user.ID, track)
	if err != nil {
		api.Internal(w, err)
		return
	}

	api.JSON(w, http.StatusOK, renderEntries(entries))
}

func (h *journalHandler) Prompt(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	track, err := model.ParseTrack(r.PathValue("track"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	day, err := strconv.Atoi(r.PathValue("day"))
	if err != nil || day < 1 || day > model.TrackDays {
		api.Error(w, http.StatusBadRequest, api.CodeValidation, "day must be between 1 and 30")
		return
	}

	owned, err := h.entitlements.Owns(user.ID, track)
	if err != nil {
		api.Internal(w, err)
		return
	}
	if !owned {
		api.Error(w, http.StatusForbidden, api.CodeNotPurchased, "you haven't purchased this track")
		return
	}

	prompt, err := h.contentService.Prompt(track, day)
	if err != nil {
		api.Error(w, http.StatusNotFound, api.CodeNotFound, "no prompt for that day")
		return
	}

	api.JSON(w, http.StatusOK, renderPrompt(prompt))
}
