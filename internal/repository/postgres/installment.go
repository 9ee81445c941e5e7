package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bnpl-debt-service/internal/domain"
	"bnpl-debt-service/internal/repository"
)

type installmentRepository struct {
	db DBTX
}

func NewInstallmentRepository(db DBTX) repository.InstallmentRepository {
	return &installmentRepository{db: db}
}

const installmentColumns = `id, plan_id, amount_due, due_date, status, paid_at, created_at, updated_at`

const installmentJoinColumns = `i.id, i.plan_id, i.amount_due, i.due_date, i.status, i.paid_at, i.created_at, i.updated_at`

func (r *installmentRepository) CreateBatch(ctx context.Context, installments []domain.Installment) error {
	query := `INSERT INTO installments (id, plan_id, amount_due, due_date, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	now := time.Now()
	for i := range installments {
		inst := &installments[i]
		if _, err := r.db.ExecContext(ctx, query, inst.ID, inst.PlanID, inst.AmountDue, inst.DueDate, inst.Status, now, now); err != nil {
			return err
		}
		inst.CreatedAt = now
		inst.UpdatedAt = now
	}
	return nil
}

func (r *installmentRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]domain.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE plan_id = $1 ORDER BY due_date`
	return r.list(ctx, query, planID)
}

func (r *installmentRepository) ListByIDsForUser(ctx context.Context, userID string, ids []uuid.UUID) ([]domain.Installment, error) {
	query := `SELECT ` + installmentJoinColumns + `
	          FROM installments i JOIN bnpl_plans p ON p.id = i.plan_id
	          WHERE p.user_id = $1 AND i.id = ANY($2)
	          ORDER BY i.due_date`
	return r.list(ctx, query, userID, pq.Array(uuidStrings(ids)))
}

func (r *installmentRepository) ListOverdueByUser(ctx context.Context, userID string) ([]domain.Installment, error) {
	query := `SELECT ` + installmentJoinColumns + `
	          FROM installments i JOIN bnpl_plans p ON p.id = i.plan_id
	          WHERE p.user_id = $1 AND i.status = $2
	          ORDER BY i.due_date`
	return r.list(ctx, query, userID, domain.InstallmentStatusOverdue)
}

func (r *installmentRepository) HasOverdue(ctx context.Context, userID string) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM installments i JOIN bnpl_plans p ON p.id = i.plan_id
	            WHERE p.user_id = $1 AND i.status = $2)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, userID, domain.InstallmentStatusOverdue).Scan(&exists)
	return exists, err
}

func (r *installmentRepository) MarkPaid(ctx context.Context, ids []uuid.UUID, paidAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE installments SET status = $1, paid_at = $2, updated_at = $2
	          WHERE id = ANY($3) AND status IN ($4, $5)`
	res, err := r.db.ExecContext(ctx, query,
		domain.InstallmentStatusPaid, paidAt, pq.Array(uuidStrings(ids)),
		domain.InstallmentStatusUpcoming, domain.InstallmentStatusOverdue)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *installmentRepository) ClaimOverdue(ctx context.Context, now time.Time, limit int) ([]repository.SweptInstallment, error) {
	// The inner select claims a bounded batch and skips rows an overlapping
	// sweep already locked; the status guard makes re-runs affect zero rows.
	query := `UPDATE installments SET status = $1, updated_at = $2
	          WHERE id IN (
	            SELECT id FROM installments
	            WHERE status = $3 AND due_date < $2::date
	            ORDER BY due_date
	            LIMIT $4
	            FOR UPDATE SKIP LOCKED)
	          RETURNING id, plan_id, (SELECT user_id FROM bnpl_plans WHERE bnpl_plans.id = installments.plan_id)`
	rows, err := r.db.QueryContext(ctx, query, domain.InstallmentStatusOverdue, now, domain.InstallmentStatusUpcoming, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var swept []repository.SweptInstallment
	for rows.Next() {
		var s repository.SweptInstallment
		if err := rows.Scan(&s.InstallmentID, &s.PlanID, &s.UserID); err != nil {
			return nil, err
		}
		swept = append(swept, s)
	}
	return swept, rows.Err()
}

func (r *installmentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Installment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var installments []domain.Installment
	for rows.Next() {
		var inst domain.Installment
		if err := rows.Scan(&inst.ID, &inst.PlanID, &inst.AmountDue, &inst.DueDate, &inst.Status, &inst.PaidAt, &inst.CreatedAt, &inst.UpdatedAt); err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}
	return installments, rows.Err()
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

