package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnpl-debt-service/internal/domain"
	"bnpl-debt-service/internal/repository"
	"bnpl-debt-service/internal/repository/postgres"
)

func TestStore_WithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Commits On Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM idempotency_keys WHERE key = \\$1").
			WithArgs("k").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		store := postgres.NewStore(db)
		err = store.WithinTx(ctx, func(tx repository.Tx) error {
			return tx.Idempotency().Delete(ctx, "k")
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rolls Back On Error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		store := postgres.NewStore(db)
		boom := errors.New("boom")
		err = store.WithinTx(ctx, func(tx repository.Tx) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Begin Failure Is Transient", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		store := postgres.NewStore(db)
		err = store.WithinTx(ctx, func(tx repository.Tx) error { return nil })
		var transient *domain.TransientStoreError
		assert.ErrorAs(t, err, &transient)
	})
}
