// Package handler provides the HTTP API of RecipeBook.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prn-tf/recipebook/internal/auth"
	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/service"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of requests that return no entity.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

// errorStatus maps an error to its HTTP status and client-facing message.
// Unclassified errors report false and must not leak their text.
func errorStatus(err error) (int, string, bool) {
	var ve *domain.ValidationError
	var de *domain.DomainError

	switch {
	case errors.Is(err, auth.ErrTokenMissing):
		return http.StatusUnauthorized, auth.ErrTokenMissing.Error(), true
	case errors.Is(err, auth.ErrTokenInvalid):
		return http.StatusForbidden, auth.ErrTokenInvalid.Error(), true
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error(), true
	case errors.Is(err, domain.ErrForbidden):
		if errors.As(err, &de) && de.Message != "" {
			return http.StatusForbidden, de.Message, true
		}
		return http.StatusForbidden, "forbidden", true
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error(), true
	case errors.Is(err, domain.ErrDuplicateIdentity),
		errors.Is(err, domain.ErrSelfShare),
		errors.Is(err, domain.ErrAlreadyShared),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, err.Error(), true
	case errors.Is(err, service.ErrSharingBusy):
		return http.StatusConflict, err.Error(), true
	}
	return http.StatusInternalServerError, service.ErrInternalError.Error(), false
}

// writeError writes the mapped error. Unclassified errors are logged with
// the request id and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	status, message, known := errorStatus(err)
	if !known {
		logger.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	writeJSON(w, status, ErrorResponse{Error: message})
}

// identity returns the bearer identity attached by the auth middleware.
func identity(r *http.Request) (auth.Identity, error) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok || id.UserID == "" {
		return auth.Identity{}, auth.ErrTokenMissing
	}
	return id, nil
}
