package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bnpl-debt-service/internal/domain"
)

type PlanService interface {
	// CreatePlan opens a BNPL plan with its installment schedule. The second
	// return reports whether the plan was newly created (false on an
	// idempotent replay).
	CreatePlan(ctx context.Context, userID string, totalAmount decimal.Decimal, installmentCount int, idempotencyKey string) (*domain.Plan, bool, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*domain.Plan, error)
	ListPlans(ctx context.Context, userID string) ([]domain.Plan, error)
}

type DebtService interface {
	CheckDebt(ctx context.Context, userID string) (*domain.DebtSummary, error)
	// ProcessRepayment pays the named installments and recomputes the user's
	// debt standing. All-or-nothing: one unknown or foreign installment fails
	// the whole request.
	ProcessRepayment(ctx context.Context, userID string, installmentIDs []uuid.UUID, idempotencyKey string) (*domain.DebtSummary, bool, error)
	// Sweep transitions every UPCOMING installment past its due date to
	// OVERDUE and flips the affected users to DEBT_USER. Safe to run at any
	// cadence and concurrently with itself.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

type RefundService interface {
	CreateRefund(ctx context.Context, userID, transactionID string, amount decimal.Decimal, reason string) (*domain.Refund, bool, error)
	GetRefund(ctx context.Context, id uuid.UUID) (*domain.Refund, error)
	ListRefunds(ctx context.Context, userID string) ([]domain.Refund, error)
	DecideRefund(ctx context.Context, id uuid.UUID, approve bool, reason string) (*domain.Refund, error)
	CancelRefund(ctx context.Context, id uuid.UUID) (*domain.Refund, error)
	// ApplyStatusUpdate ingests an asynchronous merchant status report.
	// Redelivering an already-applied update is a no-op success.
	ApplyStatusUpdate(ctx context.Context, upd domain.RefundStatusUpdate) (*domain.Refund, error)
}

type UserService interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}
