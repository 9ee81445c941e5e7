package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bnpl-debt-service/internal/domain"
	"bnpl-debt-service/internal/repository"
)

type idempotencyRepository struct {
	db DBTX
}

func NewIdempotencyRepository(db DBTX) repository.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) GetForUpdate(ctx context.Context, key string) (*domain.IdempotencyKey, error) {
	rec := &domain.IdempotencyKey{}
	query := `SELECT key, response_data, created_at, expires_at FROM idempotency_keys WHERE key = $1 FOR UPDATE`
	err := r.db.QueryRowContext(ctx, query, key).Scan(&rec.Key, &rec.ResponseData, &rec.CreatedAt, &rec.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *idempotencyRepository) Insert(ctx context.Context, rec *domain.IdempotencyKey) error {
	query := `INSERT INTO idempotency_keys (key, response_data, created_at, expires_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, rec.Key, rec.ResponseData, rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func (r *idempotencyRepository) UpdateResponse(ctx context.Context, key string, response []byte) error {
	query := `UPDATE idempotency_keys SET response_data = $1 WHERE key = $2`
	_, err := r.db.ExecContext(ctx, query, response, key)
	return err
}

func (r *idempotencyRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE key = $1`, key)
	return err
}

func (r *idempotencyRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
