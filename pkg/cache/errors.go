package cache

import (
	"context"
	"errors"
	"time"

	bperrors "github.com/matzehuels/boardpack/pkg/errors"
)

// ErrUnavailable is returned when a remote cache cannot be reached.
var ErrUnavailable = errors.New("cache unavailable")

// RetryableError marks an error as transient.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is wrapped with Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Transient decides whether another attempt can succeed. Coded errors are
// judged by their code: bad input, infeasible boards and solver timeouts
// give the same answer on every attempt, even when marked Retryable, while
// internal errors are worth another try. ErrUnavailable is always
// transient. Anything else must be marked with Retryable.
func Transient(err error) bool {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, ErrUnavailable):
		return true
	}
	switch bperrors.GetCode(err) {
	case "":
		return IsRetryable(err)
	case bperrors.ErrCodeInternal:
		return true
	default:
		return false
	}
}

// RetryPolicy is an exponential backoff schedule.
type RetryPolicy struct {
	Attempts int
	// Delay is the first wait; it doubles after each attempt up to MaxDelay.
	Delay    time.Duration
	MaxDelay time.Duration
	// Classify reports whether an error is worth another attempt. Nil means
	// Transient.
	Classify func(error) bool
}

// DefaultRetry is the policy behind RetryWithBackoff.
var DefaultRetry = RetryPolicy{Attempts: 3, Delay: 50 * time.Millisecond, MaxDelay: time.Second}

// Do calls fn until it succeeds, returns a final error or runs out of
// attempts. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	classify := p.Classify
	if classify == nil {
		classify = Transient
	}
	attempts := max(1, p.Attempts)
	delay := p.Delay

	var lastErr error
	for i := 0; i < attempts; i++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if !classify(lastErr) || i == attempts-1 {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if delay *= 2; p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return lastErr
}

// RetryWithBackoff runs fn under DefaultRetry.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return DefaultRetry.Do(ctx, fn)
}
