package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "ACTIVE"
	PlanStatusCompleted PlanStatus = "COMPLETED"
)

type InstallmentStatus string

const (
	InstallmentStatusUpcoming InstallmentStatus = "UPCOMING"
	InstallmentStatusPaid     InstallmentStatus = "PAID"
	InstallmentStatusOverdue  InstallmentStatus = "OVERDUE"
)

type Plan struct {
	ID           uuid.UUID       `json:"id"`
	UserID       string          `json:"user_id"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       PlanStatus      `json:"status"`
	Installments []Installment   `json:"installments,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type Installment struct {
	ID        uuid.UUID         `json:"id"`
	PlanID    uuid.UUID         `json:"plan_id"`
	AmountDue decimal.Decimal   `json:"amount_due"`
	DueDate   time.Time         `json:"due_date"`
	Status    InstallmentStatus `json:"status"`
	PaidAt    *time.Time        `json:"paid_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// DebtSummary is the aggregate debt view returned after a debt check or a
// repayment, so callers never need a second read.
type DebtSummary struct {
	UserID              string          `json:"user_id"`
	UserStatus          UserStatus      `json:"user_status"`
	HasOverdue          bool            `json:"has_overdue"`
	TotalDebt           decimal.Decimal `json:"total_debt"`
	OverdueInstallments []Installment   `json:"overdue_installments"`
}
