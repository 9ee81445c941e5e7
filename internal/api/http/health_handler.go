package http

import (
	"net/http"

	"bnpl-debt-service/internal/logger"
)

type healthResponse struct {
	Status   string           `json:"status"`
	Database string           `json:"database"`
	Counts   map[string]int64 `json:"counts,omitempty"`
}

// Health reports service and database status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		logger.Warn("Health check database ping failed", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:   "degraded",
			Database: "down",
		})
		return
	}

	counts, err := h.store.Counts(r.Context())
	if err != nil {
		logger.Warn("Health check counts query failed", "error", err)
		counts = nil
	}
	respondJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Database: "up",
		Counts:   counts,
	})
}
