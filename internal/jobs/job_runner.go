package jobs

import (
	"bnpl-debt-service/internal/config"
	"bnpl-debt-service/internal/logger"
	"bnpl-debt-service/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	debtSvc service.DebtService
	guard   *service.IdempotencyGuard
	config  *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(debtSvc service.DebtService, guard *service.IdempotencyGuard, cfg *config.Config) *JobRunner {
	return &JobRunner{
		debtSvc: debtSvc,
		guard:   guard,
		config:  cfg,
	}
}

// Config exposes the runner's configuration to the scheduler
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.CheckOverduePayments()
	jr.PurgeExpiredIdempotencyKeys()
}
