package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type createPlanRequest struct {
	UserID           string          `json:"user_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	InstallmentCount int             `json:"installment_count"`
}

// CreatePlan opens a new BNPL plan. Honors the X-Idempotency-Key header:
// a replayed request returns the original plan with 200 instead of 201.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if !decodeBody(w, r, &req) {
		return
	}

	plan, created, err := h.plans.CreatePlan(
		r.Context(),
		req.UserID,
		req.TotalAmount,
		req.InstallmentCount,
		r.Header.Get(idempotencyHeader),
	)
	if err != nil {
		respondError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, plan)
}

// ListPlans returns plans, optionally filtered by user_id
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.ListPlans(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, plans)
}

// GetPlan returns a plan with its installment schedule
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid plan id"})
		return
	}

	plan, err := h.plans.GetPlan(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}
