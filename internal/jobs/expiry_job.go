package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpirySweepJobName is the name of the coverage expiry sweep job
const ExpirySweepJobName = "coverage_expiry_sweep"

// DefaultSweepTimeout bounds a single sweep run
const DefaultSweepTimeout = 10 * time.Minute

// CoverageSweeper marks approved contracts whose coverage period has ended.
// This interface allows the job to call the service without importing the
// service package directly.
type CoverageSweeper interface {
	SweepExpiredCoverage(ctx context.Context) (int, error)
}

// ExpirySweepJob periodically flags approved contracts whose end date has
// passed and records a coverage_expired event for each.
type ExpirySweepJob struct {
	sweeper CoverageSweeper
	logger  *zap.Logger
	timeout time.Duration
}

// NewExpirySweepJob creates a new coverage expiry sweep job.
func NewExpirySweepJob(sweeper CoverageSweeper, logger *zap.Logger, timeout time.Duration) *ExpirySweepJob {
	if timeout <= 0 {
		timeout = DefaultSweepTimeout
	}
	return &ExpirySweepJob{
		sweeper: sweeper,
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes one sweep.
func (j *ExpirySweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	marked, err := j.sweeper.SweepExpiredCoverage(ctx)
	if err != nil {
		j.logger.Error("coverage expiry sweep failed",
			zap.Int("marked", marked),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return
	}

	j.logger.Info("coverage expiry sweep completed",
		zap.Int("marked", marked),
		zap.Duration("duration", time.Since(start)))
}

// Register adds the sweep to the scheduler with the given cron expression.
func (j *ExpirySweepJob) Register(scheduler *Scheduler, cronExpr string) error {
	return scheduler.AddJob(ExpirySweepJobName, cronExpr, j.Run)
}
