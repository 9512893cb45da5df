package apiclient

import (
	"context"
	"time"
)

// BackoffPolicy describes how rate-limited requests are retried: up to
// MaxAttempts tries, waiting BaseDelay before the first retry and
// multiplying the wait by Multiplier after each one.
type BackoffPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  int
}

// DefaultPolicy matches the upstream rate limits we see in practice:
// 30s base wait, doubled on every retry.
func DefaultPolicy(maxAttempts int) BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   30 * time.Second,
		Multiplier:  2,
	}
}

// Delay returns the wait before retrying after the given zero-based
// attempt number.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= time.Duration(p.Multiplier)
	}
	return d
}

// Sleeper pauses between retries. Tests inject a recording implementation
// so backoff sequences are verified without real delays.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
