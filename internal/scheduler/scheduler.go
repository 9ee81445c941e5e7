package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"bnpl-debt-service/internal/jobs"
	"bnpl-debt-service/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config().Scheduler

	// Debt sweep: mark past-due installments overdue and flag debtors
	_, err := s.cron.AddFunc(cfg.DebtSweep, s.jobs.CheckOverduePayments)
	if err != nil {
		logger.Error("Failed to register CheckOverduePayments job", "error", err)
	}

	// Idempotency key garbage collection
	_, err = s.cron.AddFunc(cfg.PurgeIdempotencyKeys, s.jobs.PurgeExpiredIdempotencyKeys)
	if err != nil {
		logger.Error("Failed to register PurgeExpiredIdempotencyKeys job", "error", err)
	}

	logger.Info("All cron jobs registered successfully")
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
