package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"bnpl-debt-service/internal/domain"
)

type createRefundRequest struct {
	UserID        string          `json:"user_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
}

type decideRefundRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

type webhookResponse struct {
	TransactionID  string `json:"transaction_id"`
	ProcessingMode string `json:"processing_mode"`
}

// CreateRefund opens a refund request. The transaction ID is the natural
// idempotency key: resubmitting the same transaction returns the existing
// refund with 200 instead of 201.
func (h *Handler) CreateRefund(w http.ResponseWriter, r *http.Request) {
	var req createRefundRequest
	if !decodeBody(w, r, &req) {
		return
	}

	refund, created, err := h.refunds.CreateRefund(r.Context(), req.UserID, req.TransactionID, req.Amount, req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, refund)
}

// ListRefunds returns refunds, optionally filtered by user_id
func (h *Handler) ListRefunds(w http.ResponseWriter, r *http.Request) {
	refunds, err := h.refunds.ListRefunds(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, refunds)
}

// GetRefund returns a single refund
func (h *Handler) GetRefund(w http.ResponseWriter, r *http.Request) {
	id, ok := refundID(w, r)
	if !ok {
		return
	}

	refund, err := h.refunds.GetRefund(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, refund)
}

// ApproveRefund records the operator decision on a PENDING refund. The body
// selects approval or rejection; any other current status is a conflict.
func (h *Handler) ApproveRefund(w http.ResponseWriter, r *http.Request) {
	id, ok := refundID(w, r)
	if !ok {
		return
	}

	req := decideRefundRequest{Approve: true}
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	refund, err := h.refunds.DecideRefund(r.Context(), id, req.Approve, req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, refund)
}

// CancelRefund withdraws a PENDING refund at the user's request
func (h *Handler) CancelRefund(w http.ResponseWriter, r *http.Request) {
	id, ok := refundID(w, r)
	if !ok {
		return
	}

	refund, err := h.refunds.CancelRefund(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, refund)
}

// RefundWebhook ingests a merchant status report. The update is handed to
// the dispatcher, which either queues it or applies it inline; the response
// reports which mode handled it. Duplicate deliveries are accepted.
func (h *Handler) RefundWebhook(w http.ResponseWriter, r *http.Request) {
	var upd domain.RefundStatusUpdate
	if !decodeBody(w, r, &upd) {
		return
	}
	if upd.TransactionID == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "transaction_id is required"})
		return
	}
	if upd.Status == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "status is required"})
		return
	}

	mode, err := h.dispatcher.Dispatch(r.Context(), upd)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, webhookResponse{
		TransactionID:  upd.TransactionID,
		ProcessingMode: mode,
	})
}

func refundID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid refund id"})
		return uuid.Nil, false
	}
	return id, true
}
