package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter builds the API router
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/{user_id}", h.GetUser).Methods(http.MethodGet)

	api.HandleFunc("/plans", h.CreatePlan).Methods(http.MethodPost)
	api.HandleFunc("/plans", h.ListPlans).Methods(http.MethodGet)
	api.HandleFunc("/plans/{id}", h.GetPlan).Methods(http.MethodGet)

	api.HandleFunc("/debt/{user_id}", h.CheckDebt).Methods(http.MethodGet)
	api.HandleFunc("/debt/{user_id}/repay", h.ProcessRepayment).Methods(http.MethodPost)

	api.HandleFunc("/refunds", h.CreateRefund).Methods(http.MethodPost)
	api.HandleFunc("/refunds", h.ListRefunds).Methods(http.MethodGet)
	api.HandleFunc("/refunds/{id}", h.GetRefund).Methods(http.MethodGet)
	api.HandleFunc("/refunds/{id}/approve", h.ApproveRefund).Methods(http.MethodPost)
	api.HandleFunc("/refunds/{id}/cancel", h.CancelRefund).Methods(http.MethodPost)

	api.HandleFunc("/webhooks/refund", h.RefundWebhook).Methods(http.MethodPost)

	return r
}
