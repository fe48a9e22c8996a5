package httputil

import (
	"context"
	"errors"
	"time"
)

// Backoff bounds for retry delays.
const (
	baseBackoff = 500 * time.Millisecond
	maxBackoff  = 10 * time.Second
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network errors, retryable HTTP statuses) with this
// type so that [Retry] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps an error as a RetryableError. A nil error stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Backoff returns the delay before the given 1-based retry attempt:
// 500ms * 2^attempt, capped at 10 seconds.
func Backoff(attempt int) time.Duration {
	d := baseBackoff << attempt
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

// Retry executes fn once plus up to retries additional attempts with
// exponential backoff. It only retries errors wrapped with [RetryableError];
// other errors are returned immediately. Returns the last error if all
// attempts fail, or ctx.Err() if cancelled during a backoff wait.
func Retry(ctx context.Context, retries int, fn func() error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if attempt >= retries {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(Backoff(attempt + 1)):
		}
	}
}
