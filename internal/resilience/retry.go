package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryConfig controls [Retry]. Zero fields take the defaults noted below.
type RetryConfig struct {
	// Name labels log lines.
	Name string

	// MaxAttempts is the total number of calls, including the first.
	// Default: 5.
	MaxAttempts int

	// Backoff is the wait after the first failure; it doubles after each
	// further failure. Default: 500ms.
	Backoff time.Duration

	// MaxBackoff caps the wait. Default: 10s.
	MaxBackoff time.Duration
}

// Retry calls fn until it succeeds, ctx is done or MaxAttempts calls have
// failed. The last error is returned wrapped.
func Retry(ctx context.Context, cfg RetryConfig, fn func(context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Second
	}

	wait := cfg.Backoff
	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		slog.Warn("retrying after failure",
			"name", cfg.Name,
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"backoff", wait,
			"err", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("resilience: %s: %w", cfg.Name, ctx.Err())
		case <-timer.C:
		}

		wait = min(wait*2, cfg.MaxBackoff)
	}
	return fmt.Errorf("resilience: %s failed after %d attempts: %w", cfg.Name, cfg.MaxAttempts, err)
}
