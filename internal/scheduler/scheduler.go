// Package scheduler re-runs the whole campaign on a fixed interval.
// Idempotent delivery records make repeated passes safe; a pass that
// fails is logged and the next tick tries again.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Job is one full campaign pass.
type Job func(ctx context.Context) error

// Scheduler runs a job immediately and then on every tick until the
// context is cancelled.
type Scheduler struct {
	interval time.Duration
	job      Job
	logger   *slog.Logger
}

func New(interval time.Duration, job Job, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		job:      job,
		logger:   logger.With("component", "scheduler"),
	}
}

// Run blocks until ctx is cancelled. Cancellation between passes stops
// the loop; cancellation during a pass is handled by the job itself.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Error("campaign pass failed", "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Info("campaign pass finished", "duration", time.Since(start))
}
