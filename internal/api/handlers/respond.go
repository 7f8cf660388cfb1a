// Package handlers contains the HTTP handlers of the REST API. They
// translate between JSON requests and the domain services, and map domain
// sentinel errors onto stable error codes.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"OpportunityRadar/internal/domain"
)

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// errorBody is the uniform error envelope every failed request returns.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

// writeDomainError maps domain sentinel errors to HTTP status and error
// code. Anything unmapped is an internal error; its detail is logged, not
// leaked.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidSourceType):
		writeError(w, http.StatusBadRequest, "invalid_source_type", err.Error())
	case errors.Is(err, domain.ErrQuotaExceeded):
		writeError(w, http.StatusForbidden, "quota_exceeded", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrSummarizerUnavailable):
		writeError(w, http.StatusServiceUnavailable, "summarizer_unavailable", err.Error())
	default:
		if logger != nil {
			logger.Error("request failed", "error", err)
		}
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
