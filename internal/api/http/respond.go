package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"bnpl-debt-service/internal/domain"
	"bnpl-debt-service/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// respondError maps domain errors onto HTTP statuses. Unknown errors are
// logged and reported as 500 without leaking internals.
func respondError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		conflictErr   *domain.StateConflictError
		forbiddenErr  *domain.ForbiddenError
		transientErr  *domain.TransientStoreError
	)

	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Error()})
	case errors.As(err, &notFoundErr):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: notFoundErr.Error()})
	case errors.As(err, &conflictErr):
		respondJSON(w, http.StatusConflict, errorResponse{Error: conflictErr.Error()})
	case errors.As(err, &forbiddenErr):
		respondJSON(w, http.StatusForbidden, errorResponse{Error: forbiddenErr.Error()})
	case errors.As(err, &transientErr):
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "temporarily unavailable, retry with the same idempotency key"})
	default:
		logger.Error("Unhandled error", "error", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}
	return true
}
