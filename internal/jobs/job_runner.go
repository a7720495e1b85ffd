package jobs

import (
	"rentspace-backend/internal/config"
	"rentspace-backend/internal/logger"
	"rentspace-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	payoutSvc service.PayoutService
	config    *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(payoutSvc service.PayoutService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		payoutSvc: payoutSvc,
		config:    cfg,
	}
}

// Config returns the configuration the runner was built with
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
