package jobs

import (
	"context"
	"time"

	"rentspace-backend/internal/logger"
)

// RunPayoutBatch disburses every due scheduled settlement. The cron entry and
// the manual admin trigger share this path, so re-running is always safe:
// settlements that already left the SCHEDULED status are not picked up again.
func (jr *JobRunner) RunPayoutBatch() {
	jr.runWithRecovery("RunPayoutBatch", func() {
		ctx := context.Background()

		report, err := jr.payoutSvc.RunBatch(ctx, time.Now())
		if err != nil {
			logger.Error("Payout batch failed", "error", err)
			return
		}

		logger.Info("Payout batch completed",
			"total", report.Total,
			"successful", report.Successful,
			"failed", report.Failed,
			"skipped", report.Skipped)
	})
}
