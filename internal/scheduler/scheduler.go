// Package scheduler runs the processor on a fixed interval until stopped.
package scheduler

import (
	"context"
	"time"

	"github.com/TobiSchelling/FeedbackLens/internal/logger"
	"github.com/TobiSchelling/FeedbackLens/internal/processor"
)

// Default timings.
const (
	DefaultInterval   = time.Hour
	DefaultRetryDelay = 5 * time.Minute
)

// Runner performs one processing run.
type Runner interface {
	Run(ctx context.Context) *processor.Result
}

// Scheduler repeats runs. After a failed run it waits RetryDelay instead of
// Interval.
type Scheduler struct {
	runner     Runner
	interval   time.Duration
	retryDelay time.Duration
	log        logger.Logger
}

// New creates a scheduler. Zero durations fall back to the defaults.
func New(runner Runner, interval, retryDelay time.Duration, log logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Scheduler{runner: runner, interval: interval, retryDelay: retryDelay, log: log}
}

// Run blocks until ctx is cancelled and returns the number of runs started.
func (s *Scheduler) Run(ctx context.Context) int {
	s.log.Info("Scheduler started",
		logger.Duration("interval", s.interval),
		logger.Duration("retry_delay", s.retryDelay),
	)

	runs := 0
	for {
		if ctx.Err() != nil {
			break
		}
		runs++
		wait := s.interval
		r := s.runner.Run(ctx)
		if err := r.Err(); err != nil {
			s.log.Error("Scheduled run failed", logger.String("run_id", r.RunID), logger.Error(err))
			wait = s.retryDelay
		}
		s.log.Debug("Sleeping until next run", logger.Duration("wait", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}

	s.log.Info("Scheduler stopped", logger.Int("runs", runs))
	return runs
}
