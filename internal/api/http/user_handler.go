package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"bnpl-debt-service/internal/domain"
)

// ListUsers returns all users with PII masked
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	masked := make([]domain.MaskedUser, 0, len(users))
	for i := range users {
		masked = append(masked, users[i].Masked())
	}
	respondJSON(w, http.StatusOK, masked)
}

// GetUser returns a single user with PII masked
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user.Masked())
}
