// Package retry drives operations that can be rejected for transient reasons, sleeping a fixed
// wait between attempts until one is accepted.
package retry

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("retry: max attempts must be positive")

	// ErrNegativeWait is returned when the wait between attempts is negative.
	ErrNegativeWait = errors.New("retry: wait must not be negative")

	// ErrMaxAttemptsReached is returned when every allowed attempt was rejected.
	ErrMaxAttemptsReached = errors.New("retry: max attempts reached")
)

// AttemptFunc makes one attempt. It reports false when the operation was rejected and should be
// tried again, and a non-nil error when retrying cannot help.
type AttemptFunc func(ctx context.Context) (bool, error)

// Result describes how an accepted (or abandoned) operation went.
type Result struct {
	Attempts   int
	TotalDelay time.Duration
}

// Retries is the number of rejected attempts before the last one.
func (r Result) Retries() int {
	if r.Attempts == 0 {
		return 0
	}
	return r.Attempts - 1
}

type config struct {
	maxAttempts int
	onReject    func(attempt int)
}

// Option configures Until using the functional options pattern.
type Option func(*config) error

// WithMaxAttempts bounds the number of attempts. Without it Until retries until the context ends.
func WithMaxAttempts(attempts int) Option {
	return func(c *config) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		c.maxAttempts = attempts
		return nil
	}
}

// WithOnReject registers a callback invoked after each rejected attempt, with its 1-based number.
func WithOnReject(fn func(attempt int)) Option {
	return func(c *config) error {
		c.onReject = fn
		return nil
	}
}

// Until calls attempt until it is accepted, sleeping wait after every rejection.
//
// It returns the attempt's error as is, ctx.Err() once the context is done, or
// ErrMaxAttemptsReached when a WithMaxAttempts bound is exhausted.
func Until(ctx context.Context, wait time.Duration, attempt AttemptFunc, opts ...Option) (Result, error) {
	var res Result
	if wait < 0 {
		return res, ErrNegativeWait
	}
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return res, err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		res.Attempts++
		ok, err := attempt(ctx)
		if err != nil {
			return res, err
		}
		if ok {
			return res, nil
		}

		if cfg.onReject != nil {
			cfg.onReject(res.Attempts)
		}
		if cfg.maxAttempts > 0 && res.Attempts >= cfg.maxAttempts {
			return res, ErrMaxAttemptsReached
		}

		if err := Sleep(ctx, wait); err != nil {
			return res, err
		}
		res.TotalDelay += wait
	}
}

// Sleep pauses for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
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
