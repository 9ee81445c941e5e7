package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "PENDING"
	RefundStatusApproved  RefundStatus = "APPROVED"
	RefundStatusRejected  RefundStatus = "REJECTED"
	RefundStatusCompleted RefundStatus = "COMPLETED"
)

type Refund struct {
	ID            uuid.UUID       `json:"id"`
	UserID        string          `json:"user_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        RefundStatus    `json:"status"`
	Reason        string          `json:"reason"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// RefundStatusUpdate is an asynchronous status report from a merchant,
// delivered at-least-once and possibly out of order.
type RefundStatusUpdate struct {
	TransactionID     string `json:"transaction_id"`
	Status            string `json:"status"`
	MerchantReference string `json:"merchant_reference,omitempty"`
}
