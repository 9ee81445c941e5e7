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

type planRepository struct {
	db DBTX
}

func NewPlanRepository(db DBTX) repository.PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(ctx context.Context, p *domain.Plan) error {
	query := `INSERT INTO bnpl_plans (id, user_id, total_amount, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	now := time.Now()
	_, err := r.db.ExecContext(ctx, query, p.ID, p.UserID, p.TotalAmount, p.Status, now, now)
	if err != nil {
		return err
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (r *planRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	p := &domain.Plan{}
	query := `SELECT id, user_id, total_amount, status, created_at, updated_at FROM bnpl_plans WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.UserID, &p.TotalAmount, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "plan", ID: id.String()}
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *planRepository) List(ctx context.Context, userID string) ([]domain.Plan, error) {
	query := `SELECT id, user_id, total_amount, status, created_at, updated_at FROM bnpl_plans`
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

	var plans []domain.Plan
	for rows.Next() {
		var p domain.Plan
		if err := rows.Scan(&p.ID, &p.UserID, &p.TotalAmount, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *planRepository) CompleteIfFullyPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE bnpl_plans SET status = $1, updated_at = $2
	          WHERE id = $3 AND status = $4
	            AND NOT EXISTS (SELECT 1 FROM installments WHERE plan_id = $3 AND status <> $5)`
	res, err := r.db.ExecContext(ctx, query, domain.PlanStatusCompleted, time.Now(), id, domain.PlanStatusActive, domain.InstallmentStatusPaid)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
