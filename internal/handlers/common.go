package handlers

import (
	"encoding/json"
	"net/http"

	"lingoconnect-backend/internal/middleware"
	"lingoconnect-backend/internal/services"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse represents a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// statusFor maps a service error kind to an HTTP status. Conflicts are
// reported as 400 like the rest of the client errors.
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindInvalidArgument, services.KindConflict:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError responds with the error's kind and message. Internal
// errors are logged with their cause, which never reaches the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	kind := services.KindOf(err)
	if kind == services.KindInternal {
		event := log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", chimw.GetReqID(r.Context()))
		if userID, ok := middleware.GetUserID(r.Context()); ok {
			event = event.Str("user_id", userID.String())
		}
		event.Msg(msg)
	}
	respondError(w, services.MessageOf(err), statusFor(kind))
}

// currentUser returns the authenticated user, responding 401 when absent
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondError(w, "Unauthorized", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}
