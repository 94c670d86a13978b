package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSweeper struct {
	marked   int
	err      error
	calls    int
	deadline bool
}

func (s *fakeSweeper) SweepExpiredCoverage(ctx context.Context) (int, error) {
	s.calls++
	_, s.deadline = ctx.Deadline()
	return s.marked, s.err
}

func TestExpirySweepJobRun(t *testing.T) {
	sweeper := &fakeSweeper{marked: 3}
	job := NewExpirySweepJob(sweeper, zap.NewNop(), time.Minute)

	job.Run()

	assert.Equal(t, 1, sweeper.calls)
	assert.True(t, sweeper.deadline, "sweep must run under a deadline")
}

func TestExpirySweepJobRunError(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("database unavailable")}
	job := NewExpirySweepJob(sweeper, zap.NewNop(), time.Minute)

	// Errors are logged, never panicked
	job.Run()
	assert.Equal(t, 1, sweeper.calls)
}

func TestExpirySweepJobDefaultTimeout(t *testing.T) {
	job := NewExpirySweepJob(&fakeSweeper{}, zap.NewNop(), 0)
	assert.Equal(t, DefaultSweepTimeout, job.timeout)
}

func TestExpirySweepJobRegister(t *testing.T) {
	scheduler := NewScheduler(zap.NewNop())
	job := NewExpirySweepJob(&fakeSweeper{}, zap.NewNop(), time.Minute)

	require.NoError(t, job.Register(scheduler, "0 0 3 * * *"))
	assert.Contains(t, scheduler.GetJobNames(), ExpirySweepJobName)

	// Same name cannot be registered twice
	assert.Error(t, job.Register(scheduler, "0 0 3 * * *"))
}

func TestSchedulerRejectsBadExpression(t *testing.T) {
	scheduler := NewScheduler(zap.NewNop())
	err := scheduler.AddJob("bad", "not a cron expression", func() {})
	assert.Error(t, err)
}

func TestSchedulerRemoveJob(t *testing.T) {
	scheduler := NewScheduler(zap.NewNop())
	require.NoError(t, scheduler.AddJob("sweep", "@every 1h", func() {}))

	require.NoError(t, scheduler.RemoveJob("sweep"))
	assert.Empty(t, scheduler.GetJobNames())
	assert.Error(t, scheduler.RemoveJob("sweep"))
}
