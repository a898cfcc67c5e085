package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Response is the envelope every handler returns. Error carries a stable
// snake_case code for clients to branch on; Message is human-readable.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Stable error codes shared across handlers.
const (
	CodeValidation       = "validation_error"
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeAlreadyPurchased = "track_already_purchased"
	CodeNotPurchased     = "track_not_purchased"
	CodeDayMismatch      = "day_mismatch"
	CodeNoActiveTrack    = "no_active_track"
	CodeCodeNotFound     = "code_not_found"
	CodeCodeInactive     = "code_inactive"
	CodeCodeExpired      = "code_expired"
	CodeCodeExhausted    = "code_exhausted"
	CodeProviderError    = "provider_error"
	CodeInternal         = "internal_error"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Response{Success: true, Data: data})
}

func Message(w http.ResponseWriter, status int, message string) {
	write(w, status, Response{Success: true, Message: message})
}

func Error(w http.ResponseWriter, status int, code, message string) {
	write(w, status, Response{Success: false, Error: code, Message: message})
}

func Internal(w http.ResponseWriter, err error) {
	slog.Error("request failed", "error", err)
	Error(w, http.StatusInternalServerError, CodeInternal, "something went wrong, please try again")
}

func write(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(resp)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Decode reads a JSON request body into dst with a size cap and strict
// field checking, so malformed input surfaces as a validation error rather
// than silently zeroed fields.
func Decode(r *http.Request, dst any) error {
	defer io.Copy(io.Discard, r.Body) //nolint:errcheck

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		case errors.As(err, &syntaxErr):
			return fmt.Errorf("malformed JSON at offset %d", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			return fmt.Errorf("invalid value for field %q", typeErr.Field)
		default:
			return err
		}
	}

	return nil
}
