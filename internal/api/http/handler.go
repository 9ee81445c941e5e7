package http

import (
	"context"

	"bnpl-debt-service/internal/dispatch"
	"bnpl-debt-service/internal/service"
)

// idempotencyHeader carries the caller-supplied deduplication key on
// mutating endpoints. Retries must resend the same value.
const idempotencyHeader = "X-Idempotency-Key"

// HealthStore reports storage reachability and entity counts for health checks
type HealthStore interface {
	Ping(ctx context.Context) error
	Counts(ctx context.Context) (map[string]int64, error)
}

// Handler holds the HTTP handlers for the API
type Handler struct {
	users      service.UserService
	plans      service.PlanService
	debts      service.DebtService
	refunds    service.RefundService
	dispatcher dispatch.Dispatcher
	store      HealthStore
}

// NewHandler creates a handler backed by the given services
func NewHandler(
	users service.UserService,
	plans service.PlanService,
	debts service.DebtService,
	refunds service.RefundService,
	dispatcher dispatch.Dispatcher,
	store HealthStore,
) *Handler {
	return &Handler{
		users:      users,
		plans:      plans,
		debts:      debts,
		refunds:    refunds,
		dispatcher: dispatcher,
		store:      store,
	}
}
