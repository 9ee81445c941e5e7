package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnpl-debt-service/internal/domain"
	"bnpl-debt-service/internal/repository"
	"bnpl-debt-service/internal/repository/postgres"
)

func TestIdempotencyRepository_GetForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewIdempotencyRepository(db)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"key", "response_data", "created_at", "expires_at"}).
			AddRow("plan:key-1", []byte(`{"id":"abc"}`), time.Now(), time.Now().Add(time.Hour))

		mock.ExpectQuery("SELECT key, response_data, created_at, expires_at FROM idempotency_keys WHERE key = \\$1 FOR UPDATE").
			WithArgs("plan:key-1").
			WillReturnRows(rows)

		rec, err := repo.GetForUpdate(ctx, "plan:key-1")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "plan:key-1", rec.Key)
		assert.JSONEq(t, `{"id":"abc"}`, string(rec.ResponseData))
	})

	t.Run("Absent Key Returns Nil", func(t *testing.T) {
		mock.ExpectQuery("SELECT key, response_data, created_at, expires_at FROM idempotency_keys WHERE key = \\$1 FOR UPDATE").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"key"}))

		rec, err := repo.GetForUpdate(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestIdempotencyRepository_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewIdempotencyRepository(db)
	ctx := context.Background()

	rec := &domain.IdempotencyKey{
		Key:          "plan:key-1",
		ResponseData: []byte("null"),
		CreatedAt:    time.Now(),
		ExpiresAt:    time.Now().Add(24 * time.Hour),
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO idempotency_keys").
			WithArgs("plan:key-1", []byte("null"), rec.CreatedAt, rec.ExpiresAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Insert(ctx, rec))
	})

	t.Run("Concurrent Claim Loses Unique Race", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO idempotency_keys").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "idempotency_keys_pkey"})

		err := repo.Insert(ctx, rec)
		assert.ErrorIs(t, err, repository.ErrDuplicateKey)
	})
}

func TestIdempotencyRepository_PurgeExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewIdempotencyRepository(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectExec("DELETE FROM idempotency_keys WHERE expires_at < \\$1").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	purged, err := repo.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), purged)
}
