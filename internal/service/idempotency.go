package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bnpl-debt-service/internal/domain"
	"bnpl-debt-service/internal/logger"
	"bnpl-debt-service/internal/repository"
)

// Operation is a mutating unit of work executed at most once per key. It runs
// inside the guard's transaction, so its effects commit together with the
// stored response.
type Operation func(ctx context.Context, tx repository.Tx) (json.RawMessage, error)

// IdempotencyGuard deduplicates externally-triggered mutations. The stored
// response of the first execution is replayed to every retry until the key
// expires.
type IdempotencyGuard struct {
	txm repository.TxManager
	ttl time.Duration
}

func NewIdempotencyGuard(txm repository.TxManager, ttl time.Duration) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyGuard{txm: txm, ttl: ttl}
}

// Execute runs op under key. The bool return reports a replay: true means a
// stored response was returned and op never ran. When op fails nothing is
// persisted, so the key stays retryable.
//
// Two callers racing on a fresh key serialize on the key's unique constraint:
// the loser's insert fails after the winner commits, and one retry of the
// transaction then finds the stored response.
func (g *IdempotencyGuard) Execute(ctx context.Context, key string, op Operation) (json.RawMessage, bool, error) {
	response, replayed, err := g.execute(ctx, key, op)
	if errors.Is(err, repository.ErrDuplicateKey) {
		logger.Debug("Idempotency key race lost, replaying winner's response", "key", key)
		response, replayed, err = g.execute(ctx, key, op)
	}
	return response, replayed, err
}

func (g *IdempotencyGuard) execute(ctx context.Context, key string, op Operation) (json.RawMessage, bool, error) {
	var response json.RawMessage
	var replayed bool

	err := g.txm.WithinTx(ctx, func(tx repository.Tx) error {
		rec, err := tx.Idempotency().GetForUpdate(ctx, key)
		if err != nil {
			return err
		}
		if rec != nil {
			if !rec.Expired(time.Now()) {
				response = rec.ResponseData
				replayed = true
				return nil
			}
			if err := tx.Idempotency().Delete(ctx, key); err != nil {
				return err
			}
		}

		now := time.Now()
		err = tx.Idempotency().Insert(ctx, &domain.IdempotencyKey{
			Key:          key,
			ResponseData: json.RawMessage("null"),
			CreatedAt:    now,
			ExpiresAt:    now.Add(g.ttl),
		})
		if err != nil {
			return err
		}

		result, err := op(ctx, tx)
		if err != nil {
			return err
		}
		if err := tx.Idempotency().UpdateResponse(ctx, key, result); err != nil {
			return err
		}
		response = result
		return nil
	})

	return response, replayed, err
}

// Purge removes expired keys. Pure garbage collection, no observable effect.
func (g *IdempotencyGuard) Purge(ctx context.Context, now time.Time) (int64, error) {
	var purged int64
	err := g.txm.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		purged, err = tx.Idempotency().PurgeExpired(ctx, now)
		return err
	})
	return purged, err
}
