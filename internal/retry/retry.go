package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy is a fixed-attempt, fixed-backoff retry policy.
type Policy struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff"`
}

// DefaultPolicy matches how long the vendor UI usually needs before a freshly
// rendered control accepts clicks.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Backoff: time.Second}
}

// Sleeper pauses between attempts.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper sleeps on the wall clock and wakes early on cancellation.
type RealSleeper struct{}

func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do calls fn until it succeeds or the policy is exhausted. fn receives the
// one-based attempt number. The last error is returned wrapped.
func Do(ctx context.Context, p Policy, s Sleeper, what string, fn func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	if s == nil {
		s = RealSleeper{}
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		slog.Debug("Retrying", "what", what, "attempt", attempt, "of", attempts, "error", err)
		if sleepErr := s.Sleep(ctx, p.Backoff); sleepErr != nil {
			return sleepErr
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", what, attempts, err)
}

// BestEffort runs a cleanup step whose failure must never mask the error that
// triggered it. Failures are logged and reported as false.
func BestEffort(ctx context.Context, what string, fn func(context.Context) error) bool {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Cleanup panicked", "what", what, "panic", r)
		}
	}()
	if err := fn(ctx); err != nil {
		slog.Warn("Cleanup failed", "what", what, "error", err)
		return false
	}
	return true
}
