package jobs

import (
	"context"
	"time"

	"bnpl-debt-service/internal/logger"
)

const jobTimeout = 5 * time.Minute

// CheckOverduePayments marks past-due installments overdue and flags their owners as debtors
func (jr *JobRunner) CheckOverduePayments() {
	jr.runWithRecovery("check_overdue_payments", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		swept, err := jr.debtSvc.Sweep(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("Debt sweep failed", "error", err, "swept", swept)
			return
		}
		logger.Info("Debt sweep finished", "overdue_installments", swept)
	})
}

// PurgeExpiredIdempotencyKeys removes idempotency records past their TTL
func (jr *JobRunner) PurgeExpiredIdempotencyKeys() {
	jr.runWithRecovery("purge_expired_idempotency_keys", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		purged, err := jr.guard.Purge(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("Idempotency purge failed", "error", err)
			return
		}
		logger.Info("Idempotency purge finished", "purged_keys", purged)
	})
}
