package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type repayRequest struct {
	InstallmentIDs []uuid.UUID `json:"installment_ids"`
}

// CheckDebt reports a user's current debt standing
func (h *Handler) CheckDebt(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	summary, err := h.debts.CheckDebt(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// ProcessRepayment pays the named installments for a user. All-or-nothing:
// any unknown or foreign installment fails the whole request. Honors the
// X-Idempotency-Key header.
func (h *Handler) ProcessRepayment(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	var req repayRequest
	if !decodeBody(w, r, &req) {
		return
	}

	summary, applied, err := h.debts.ProcessRepayment(
		r.Context(),
		userID,
		req.InstallmentIDs,
		r.Header.Get(idempotencyHeader),
	)
	if err != nil {
		respondError(w, err)
		return
	}

	if !applied {
		w.Header().Set("Idempotent-Replay", "true")
	}
	respondJSON(w, http.StatusOK, summary)
}
