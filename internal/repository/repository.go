package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"bnpl-debt-service/internal/domain"
)

// ErrDuplicateKey is returned by inserts that hit a unique constraint. The
// idempotency guard relies on it to detect a concurrent first execution.
var ErrDuplicateKey = errors.New("duplicate key")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	// GetByIDForUpdate locks the user row for the remainder of the enclosing
	// transaction so a concurrent sweep cannot flip the status mid-check.
	GetByIDForUpdate(ctx context.Context, userID string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	// UpdateStatus transitions the user from one status to another. Returns
	// false when the user was no longer in the expected status.
	UpdateStatus(ctx context.Context, userID string, from, to domain.UserStatus) (bool, error)
	// MarkDebtors flips every listed user that is not already DEBT_USER.
	MarkDebtors(ctx context.Context, userIDs []string) (int64, error)
}

type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error)
	List(ctx context.Context, userID string) ([]domain.Plan, error)
	// CompleteIfFullyPaid marks the plan COMPLETED when every installment is
	// PAID. Returns true when the transition happened.
	CompleteIfFullyPaid(ctx context.Context, id uuid.UUID) (bool, error)
}

// SweptInstallment identifies an installment transitioned to OVERDUE by a
// sweep, together with the plan's owner.
type SweptInstallment struct {
	InstallmentID uuid.UUID
	PlanID        uuid.UUID
	UserID        string
}

type InstallmentRepository interface {
	CreateBatch(ctx context.Context, installments []domain.Installment) error
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]domain.Installment, error)
	// ListByIDsForUser returns the named installments that belong to the user.
	ListByIDsForUser(ctx context.Context, userID string, ids []uuid.UUID) ([]domain.Installment, error)
	ListOverdueByUser(ctx context.Context, userID string) ([]domain.Installment, error)
	HasOverdue(ctx context.Context, userID string) (bool, error)
	// MarkPaid transitions the named installments to PAID. The update is
	// conditional on status IN (UPCOMING, OVERDUE) so a payment racing a
	// sweep always ends PAID and a repeated call affects zero rows.
	MarkPaid(ctx context.Context, ids []uuid.UUID, paidAt time.Time) (int64, error)
	// ClaimOverdue transitions up to limit UPCOMING installments whose due
	// date has passed to OVERDUE and reports them. Rows locked by an
	// overlapping sweep are skipped, so concurrent sweeps partition the work.
	ClaimOverdue(ctx context.Context, now time.Time, limit int) ([]SweptInstallment, error)
}

type RefundRepository interface {
	// Create inserts a new refund; ErrDuplicateKey when the transaction_id is
	// already taken.
	Create(ctx context.Context, refund *domain.Refund) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Refund, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Refund, error)
	List(ctx context.Context, userID string) ([]domain.Refund, error)
	// TransitionStatus applies a status-guarded conditional update. Returns
	// false when the refund was not in the expected source status.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.RefundStatus, reason string, processedAt time.Time) (bool, error)
}

type IdempotencyRepository interface {
	// GetForUpdate returns the record for key, locking it for the enclosing
	// transaction, or nil when absent.
	GetForUpdate(ctx context.Context, key string) (*domain.IdempotencyKey, error)
	// Insert claims the key; ErrDuplicateKey when another transaction
	// committed it first.
	Insert(ctx context.Context, rec *domain.IdempotencyKey) error
	UpdateResponse(ctx context.Context, key string, response []byte) error
	Delete(ctx context.Context, key string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Tx exposes every repository bound to one store transaction.
type Tx interface {
	Users() UserRepository
	Plans() PlanRepository
	Installments() InstallmentRepository
	Refunds() RefundRepository
	Idempotency() IdempotencyRepository
}

// TxManager runs a function inside a single atomic store transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
