package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// BaseBackoff is the wait before the first retry. Each later retry doubles it.
const BaseBackoff = 250 * time.Millisecond

// Backoff returns the wait before retry n, counting from 1.
func Backoff(n int) time.Duration {
	if n < 1 {
		return 0
	}
	return BaseBackoff << uint(n-1)
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so Deliver stops retrying and returns it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Deliver calls send once plus up to retries more times until it succeeds,
// waiting Backoff between attempts. It stops early on a Permanent error or
// when ctx ends.
func Deliver(ctx context.Context, retries int, send func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(Backoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("canceled after %d attempts: %w", attempt, ctx.Err())
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("canceled after %d attempts: %w", attempt, err)
		}

		lastErr = send(ctx)
		if lastErr == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", retries+1, lastErr)
}
