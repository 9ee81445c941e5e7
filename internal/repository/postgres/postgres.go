package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	_ "github.com/lib/pq"

	"bnpl-debt-service/internal/domain"
	"bnpl-debt-service/internal/repository"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every repository can run
// standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.PlanRepository
	repository.InstallmentRepository
	repository.RefundRepository
	repository.IdempotencyRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                    db,
		UserRepository:        NewUserRepository(db),
		PlanRepository:        NewPlanRepository(db),
		InstallmentRepository: NewInstallmentRepository(db),
		RefundRepository:      NewRefundRepository(db),
		IdempotencyRepository: NewIdempotencyRepository(db),
	}
}

// WithinTx runs fn inside one database transaction. fn gets repositories
// bound to that transaction; any error rolls everything back.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.TransientStoreError{Err: fmt.Errorf("begin transaction: %w", err)}
	}

	if err := fn(&txRepos{tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return &domain.TransientStoreError{Err: fmt.Errorf("commit transaction: %w", err)}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Counts returns per-entity row counts for the health endpoint
func (s *Store) Counts(ctx context.Context) (map[string]int64, error) {
	tables := []struct{ name, table string }{
		{"users", "users"},
		{"plans", "bnpl_plans"},
		{"refunds", "refunds"},
	}
	counts := make(map[string]int64, len(tables))
	for _, t := range tables {
		var n int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", t.name, err)
		}
		counts[t.name] = n
	}
	return counts, nil
}

type txRepos struct {
	tx *sql.Tx
}

func (t *txRepos) Users() repository.UserRepository {
	return NewUserRepository(t.tx)
}

func (t *txRepos) Plans() repository.PlanRepository {
	return NewPlanRepository(t.tx)
}

func (t *txRepos) Installments() repository.InstallmentRepository {
	return NewInstallmentRepository(t.tx)
}

func (t *txRepos) Refunds() repository.RefundRepository {
	return NewRefundRepository(t.tx)
}

func (t *txRepos) Idempotency() repository.IdempotencyRepository {
	return NewIdempotencyRepository(t.tx)
}

// mapUniqueViolation translates a Postgres unique-constraint error into the
// driver-agnostic repository.ErrDuplicateKey.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", repository.ErrDuplicateKey, pqErr.Constraint)
	}
	return err
}
