package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bnpl-debt-service/internal/domain"
	"bnpl-debt-service/internal/logger"
	"bnpl-debt-service/internal/repository"
)

type refundService struct {
	txm     repository.TxManager
	refunds repository.RefundRepository
	guard   *IdempotencyGuard
}

func NewRefundService(txm repository.TxManager, refunds repository.RefundRepository, guard *IdempotencyGuard) RefundService {
	return &refundService{txm: txm, refunds: refunds, guard: guard}
}

// createRefundResult is the guard-stored envelope; Created distinguishes the
// first execution from a same-transaction-id replay.
type createRefundResult struct {
	Refund  *domain.Refund `json:"refund"`
	Created bool           `json:"created"`
}

func (s *refundService) CreateRefund(ctx context.Context, userID, transactionID string, amount decimal.Decimal, reason string) (*domain.Refund, bool, error) {
	if userID == "" {
		return nil, false, &domain.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if transactionID == "" {
		return nil, false, &domain.ValidationError{Field: "transaction_id", Reason: "must not be empty"}
	}
	if amount.Sign() <= 0 {
		return nil, false, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	response, replayed, err := s.guard.Execute(ctx, "refund:"+transactionID, func(ctx context.Context, tx repository.Tx) (json.RawMessage, error) {
		// The transaction_id is unique for the engine's lifetime, so an
		// existing refund is returned even after the guard key expired.
		existing, err := tx.Refunds().GetByTransactionID(ctx, transactionID)
		if err == nil {
			logger.Info("Idempotent refund request", "transaction_id", transactionID, "refund_id", existing.ID)
			return json.Marshal(createRefundResult{Refund: existing, Created: false})
		}
		if _, ok := asNotFound(err); !ok {
			return nil, err
		}

		if _, err := tx.Users().GetByID(ctx, userID); err != nil {
			return nil, err
		}

		refund := &domain.Refund{
			ID:            uuid.New(),
			UserID:        userID,
			TransactionID: transactionID,
			Amount:        amount,
			Status:        domain.RefundStatusPending,
			Reason:        reason,
		}
		if err := tx.Refunds().Create(ctx, refund); err != nil {
			return nil, err
		}
		logger.Info("Created refund request", "refund_id", refund.ID, "user_id", userID, "transaction_id", transactionID)
		return json.Marshal(createRefundResult{Refund: refund, Created: true})
	})
	if err != nil {
		return nil, false, err
	}

	var result createRefundResult
	if err := json.Unmarshal(response, &result); err != nil {
		return nil, false, err
	}
	// The stored payload keeps the first execution's Created flag, so on a
	// replayed call result.Created can still be true. Only the call that
	// actually inserted the row reports created.
	return result.Refund, result.Created && !replayed, nil
}

func (s *refundService) GetRefund(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	return s.refunds.GetByID(ctx, id)
}

func (s *refundService) ListRefunds(ctx context.Context, userID string) ([]domain.Refund, error) {
	return s.refunds.List(ctx, userID)
}

func (s *refundService) DecideRefund(ctx context.Context, id uuid.UUID, approve bool, reason string) (*domain.Refund, error) {
	target := domain.RefundStatusApproved
	attempted := "approve"
	transitionReason := ""
	if !approve {
		target = domain.RefundStatusRejected
		attempted = "reject"
		transitionReason = "Rejected"
		if reason != "" {
			transitionReason = fmt.Sprintf("Rejected: %s", reason)
		}
	}
	return s.transitionFromPending(ctx, id, target, attempted, transitionReason)
}

// CancelRefund is a user-initiated termination; it shares the REJECTED
// terminal state but keeps a distinguishing reason.
func (s *refundService) CancelRefund(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	return s.transitionFromPending(ctx, id, domain.RefundStatusRejected, "cancel", "Cancelled by user")
}

func (s *refundService) transitionFromPending(ctx context.Context, id uuid.UUID, target domain.RefundStatus, attempted, reason string) (*domain.Refund, error) {
	var refund *domain.Refund
	err := s.txm.WithinTx(ctx, func(tx repository.Tx) error {
		current, err := tx.Refunds().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != domain.RefundStatusPending {
			return &domain.StateConflictError{Entity: "refund", ID: id.String(), Current: string(current.Status), Attempted: attempted}
		}
		ok, err := tx.Refunds().TransitionStatus(ctx, id, domain.RefundStatusPending, target, reason, time.Now())
		if err != nil {
			return err
		}
		if !ok {
			return &domain.StateConflictError{Entity: "refund", ID: id.String(), Current: string(current.Status), Attempted: attempted}
		}
		refund, err = tx.Refunds().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Refund decided", "refund_id", id, "status", refund.Status)
	return refund, nil
}

func (s *refundService) ApplyStatusUpdate(ctx context.Context, upd domain.RefundStatusUpdate) (*domain.Refund, error) {
	reported := strings.ToLower(strings.TrimSpace(upd.Status))
	switch reported {
	case "approved", "rejected", "failed", "processing":
	default:
		return nil, &domain.ValidationError{Field: "status", Reason: "must be one of: approved, rejected, failed, processing"}
	}

	key := fmt.Sprintf("webhook:%s:%s", upd.TransactionID, reported)
	response, _, err := s.guard.Execute(ctx, key, func(ctx context.Context, tx repository.Tx) (json.RawMessage, error) {
		refund, err := s.applyStatusTx(ctx, tx, upd.TransactionID, reported)
		if err != nil {
			return nil, err
		}
		return json.Marshal(refund)
	})
	if err != nil {
		return nil, err
	}

	refund := &domain.Refund{}
	if err := json.Unmarshal(response, refund); err != nil {
		return nil, err
	}
	return refund, nil
}

func (s *refundService) applyStatusTx(ctx context.Context, tx repository.Tx, transactionID, reported string) (*domain.Refund, error) {
	refund, err := tx.Refunds().GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	// Merchants still settling; nothing to apply yet.
	if reported == "processing" {
		return refund, nil
	}

	target := domain.RefundStatusRejected
	reason := "Rejected by merchant"
	if reported == "approved" {
		target = domain.RefundStatusCompleted
		reason = ""
	}

	// Redelivery of an already-applied update: success, no transition.
	if refund.Status == target {
		logger.Debug("Webhook redelivery ignored", "transaction_id", transactionID, "status", reported)
		return refund, nil
	}

	switch target {
	case domain.RefundStatusCompleted:
		// The approval webhook finalizes a previously decided refund; it
		// does not itself decide it.
		if refund.Status != domain.RefundStatusApproved {
			return nil, &domain.StateConflictError{Entity: "refund", ID: refund.ID.String(), Current: string(refund.Status), Attempted: "complete"}
		}
	case domain.RefundStatusRejected:
		if refund.Status == domain.RefundStatusCompleted {
			return nil, &domain.StateConflictError{Entity: "refund", ID: refund.ID.String(), Current: string(refund.Status), Attempted: "reject"}
		}
	}

	ok, err := tx.Refunds().TransitionStatus(ctx, refund.ID, refund.Status, target, reason, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with another transition; re-read and accept if it
		// landed on the same status.
		current, err := tx.Refunds().GetByID(ctx, refund.ID)
		if err != nil {
			return nil, err
		}
		if current.Status != target {
			return nil, &domain.StateConflictError{Entity: "refund", ID: refund.ID.String(), Current: string(current.Status), Attempted: string(target)}
		}
		return current, nil
	}

	refund, err = tx.Refunds().GetByID(ctx, refund.ID)
	if err != nil {
		return nil, err
	}
	logger.Info("Webhook applied to refund", "refund_id", refund.ID, "transaction_id", transactionID, "status", refund.Status)
	return refund, nil
}

func asNotFound(err error) (*domain.NotFoundError, bool) {
	var nfe *domain.NotFoundError
	if errors.As(err, &nfe) {
		return nfe, true
	}
	return nil, false
}
