package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"bnpl-debt-service/internal/domain"
	"bnpl-debt-service/internal/repository"
)

type refundRepository struct {
	db DBTX
}

func NewRefundRepository(db DBTX) repository.RefundRepository {
	return &refundRepository{db: db}
}

const refundColumns = `id, user_id, transaction_id, amount, status, reason, processed_at, created_at, updated_at`

func (r *refundRepository) Create(ctx context.Context, rf *domain.Refund) error {
	query := `INSERT INTO refunds (id, user_id, transaction_id, amount, status, reason, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	now := time.Now()
	_, err := r.db.ExecContext(ctx, query, rf.ID, rf.UserID, rf.TransactionID, rf.Amount, rf.Status, rf.Reason, now, now)
	if err != nil {
		return mapUniqueViolation(err)
	}
	rf.CreatedAt = now
	rf.UpdatedAt = now
	return nil
}

func (r *refundRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	return r.get(ctx, `SELECT `+refundColumns+` FROM refunds WHERE id = $1`, id.String(), id)
}

func (r *refundRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Refund, error) {
	return r.get(ctx, `SELECT `+refundColumns+` FROM refunds WHERE transaction_id = $1`, transactionID, transactionID)
}

func (r *refundRepository) get(ctx context.Context, query, notFoundID string, arg any) (*domain.Refund, error) {
	rf := &domain.Refund{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&rf.ID, &rf.UserID, &rf.TransactionID, &rf.Amount, &rf.Status, &rf.Reason, &rf.ProcessedAt, &rf.CreatedAt, &rf.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "refund", ID: notFoundID}
	}
	if err != nil {
		return nil, err
	}
	return rf, nil
}

func (r *refundRepository) List(ctx context.Context, userID string) ([]domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds`
	args := []any{}
	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refunds []domain.Refund
	for rows.Next() {
		var rf domain.Refund
		if err := rows.Scan(&rf.ID, &rf.UserID, &rf.TransactionID, &rf.Amount, &rf.Status, &rf.Reason, &rf.ProcessedAt, &rf.CreatedAt, &rf.UpdatedAt); err != nil {
			return nil, err
		}
		refunds = append(refunds, rf)
	}
	return refunds, rows.Err()
}

func (r *refundRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.RefundStatus, reason string, processedAt time.Time) (bool, error) {
	query := `UPDATE refunds SET status = $1, reason = CASE WHEN $2 <> '' THEN $2 ELSE reason END, processed_at = $3, updated_at = $3
	          WHERE id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, to, reason, processedAt, id, from)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
