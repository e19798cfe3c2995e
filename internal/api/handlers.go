package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rbeezley/myk9q-scoring/internal/models"
	"github.com/rbeezley/myk9q-scoring/internal/scoring"
	"github.com/rbeezley/myk9q-scoring/internal/timing"
)

// Response helpers

type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// timingErrorCode maps timing failures to an error code. ok is false for
// errors that did not come from the timing package.
func timingErrorCode(err error) (status int, code string, ok bool) {
	switch {
	case errors.Is(err, timing.ErrConfiguration):
		return http.StatusBadRequest, "invalid_configuration", true
	case errors.Is(err, timing.ErrSecondsOutOfRange):
		return http.StatusUnprocessableEntity, "seconds_out_of_range", true
	case errors.Is(err, timing.ErrOverTimeLimit):
		return http.StatusUnprocessableEntity, "over_time_limit", true
	case errors.Is(err, timing.ErrFormat):
		return http.StatusUnprocessableEntity, "invalid_time", true
	}
	return 0, "", false
}

// respondServiceError maps scoring and timing errors onto HTTP responses
func respondServiceError(w http.ResponseWriter, err error, action string) {
	if status, code, ok := timingErrorCode(err); ok {
		respondError(w, status, code, err.Error())
		return
	}

	switch {
	case errors.Is(err, scoring.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "not_found", "session not found")
	case errors.Is(err, scoring.ErrEntryNotFound):
		respondError(w, http.StatusNotFound, "not_found", "entry not found")
	case errors.Is(err, scoring.ErrClassNotFound):
		respondError(w, http.StatusNotFound, "not_found", "class not found")
	case errors.Is(err, scoring.ErrAlreadyScored):
		respondError(w, http.StatusConflict, "already_scored", err.Error())
	case errors.Is(err, scoring.ErrTimerDisabled):
		respondError(w, http.StatusConflict, "timer_disabled", err.Error())
	case errors.Is(err, scoring.ErrIncomplete):
		respondError(w, http.StatusConflict, "incomplete", err.Error())
	case errors.Is(err, scoring.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, scoring.ErrInvalidArea):
		respondError(w, http.StatusBadRequest, "invalid_area", err.Error())
	case errors.Is(err, models.ErrInvalidResult):
		respondError(w, http.StatusBadRequest, "invalid_result", err.Error())
	default:
		slog.Error("failed to "+action, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to "+action)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		slog.Warn("readiness check failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"catalog_classes": s.catalog.Len(),
	})
}
