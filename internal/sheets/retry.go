package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

// RetryPolicy bounds the fixed-delay retry applied to view-copy and
// data-write calls. The store signals rate limits as HTTP errors; any API
// error on those paths is treated as retryable, transient network faults
// included.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy matches the historical cooperative-usage behaviour: a
// flat 10 second wait, now bounded instead of unconditional.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 30, Delay: 10 * time.Second}
}

// Do runs fn, sleeping Delay between attempts while the failure is an API
// error. Non-API errors are returned immediately.
func (p RetryPolicy) Do(ctx context.Context, log *zap.Logger, op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var apiErr *googleapi.Error
		if !errors.As(lastErr, &apiErr) {
			return lastErr
		}
		if i == attempts {
			break
		}

		log.Warn("store call failed, likely rate-limited; backing off",
			zap.String("op", op),
			zap.Int("attempt", i),
			zap.Duration("delay", p.Delay),
			zap.Error(lastErr))

		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%s: giving up after %d attempts: %w", op, attempts, lastErr)
}
