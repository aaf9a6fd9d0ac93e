// Package httpx holds the JSON response helpers shared by all handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/straintree/straintree-backend/internal/apperror"
)

type APIError struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, APIError{Error: msg})
}

// WriteServiceError maps the apperror taxonomy to status codes. Anything
// outside the taxonomy is logged and returned as a generic 500; internal
// detail never reaches the client.
func WriteServiceError(w http.ResponseWriter, err error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		WriteError(w, statusFor(appErr.Kind), appErr.Message)
		return
	}
	slog.Error("internal error", "err", err)
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}

func statusFor(kind error) int {
	switch kind {
	case apperror.ErrValidation:
		return http.StatusBadRequest
	case apperror.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperror.ErrForbidden:
		return http.StatusForbidden
	case apperror.ErrNotFound:
		return http.StatusNotFound
	case apperror.ErrGone:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// Pages computes the page count for a pagination envelope.
func Pages(total, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
