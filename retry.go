package exnest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/exnestai/exnest-go/internal/logging"
)

// sleepFunc waits for d or until ctx is cancelled, whichever comes first.
// It is a Client field so tests can substitute a fake clock.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryable reports whether err is a transport-layer fault. A structurally
// received backend response, however unhappy, is never retried.
func retryable(err error) bool {
	var te *transportError
	return errors.As(err, &te)
}

// errRetriesExhausted wraps the last transport fault once the attempt budget
// is spent.
type errRetriesExhausted struct {
	attempts int
	last     error
}

func (e *errRetriesExhausted) Error() string {
	return fmt.Sprintf("request failed after %d attempts: %v", e.attempts, e.last)
}

func (e *errRetriesExhausted) Unwrap() error { return e.last }

// runWithRetry executes fn up to cfg.MaxRetries+1 times. The delay before
// retry n is cfg.RetryDelay × n (linear backoff); there is no delay before
// the first try and none after the final failure. Only transport faults are
// retried. Cancellation aborts immediately, during an attempt or a backoff
// wait, and surfaces as the context's error.
func runWithRetry[T any](ctx context.Context, c *Client, cfg *Config, opName string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, time.Duration(attempt)*cfg.RetryDelay); err != nil {
				return zero, fmt.Errorf("exnest: %s cancelled: %w", opName, err)
			}
		}

		started := time.Now()
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, fmt.Errorf("exnest: %s cancelled: %w", opName, ctxErr)
		}
		if !retryable(err) {
			return zero, err
		}

		lastErr = err
		logging.Debugf("%s: attempt %d/%d failed after %s: %v",
			opName, attempt+1, cfg.MaxRetries+1, time.Since(started).Round(time.Millisecond), err)
	}

	return zero, &errRetriesExhausted{attempts: cfg.MaxRetries + 1, last: lastErr}
}

// networkFailure converts an exhausted transport fault into the canonical
// failure shape, so callers never see a raw transport exception.
func networkFailure(err error) *Response {
	return &Response{
		Success: false,
		Message: "request failed",
		Error: &APIError{
			Code:     ErrCodeNetwork,
			Type:     ErrTypeClient,
			Message:  err.Error(),
			Category: CategoryNetwork,
		},
	}
}
