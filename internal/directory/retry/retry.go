// Package retry wraps upstream operations with bounded exponential backoff.
//
// Only errors the classifier accepts are retried; by default that is an
// upstream rate-limit rejection. Every other error is handed back unchanged
// on the attempt that produced it.
//
//	r := retry.New(retry.DefaultPolicy(), retry.WithLogger(logger))
//	employees, err := retry.Do(ctx, r, "fetch_all", client.FetchAll)
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"staffgate/internal/directory/metrics"
	"staffgate/internal/directory/upstream"
)

// Policy configures attempts and backoff.
type Policy struct {
	// MaxAttempts counts the initial call. Default: 4
	MaxAttempts int

	// BaseDelay is the wait before the first retry. Default: 20s
	BaseDelay time.Duration

	// Multiplier grows the delay after each retry. Default: 1.5
	Multiplier float64

	// MaxDelay caps any single wait. Default: 60s
	MaxDelay time.Duration
}

// DefaultPolicy returns the policy used against the directory API.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   20 * time.Second,
		Multiplier:  1.5,
		MaxDelay:    60 * time.Second,
	}
}

var ErrInvalidPolicy = errors.New("invalid retry policy")

// Validate checks that the policy can produce a finite schedule.
func (p Policy) Validate() error {
	switch {
	case p.MaxAttempts < 1:
		return fmt.Errorf("%w: max attempts must be at least 1", ErrInvalidPolicy)
	case p.BaseDelay < 0:
		return fmt.Errorf("%w: base delay must not be negative", ErrInvalidPolicy)
	case p.Multiplier < 1:
		return fmt.Errorf("%w: multiplier must be at least 1", ErrInvalidPolicy)
	case p.MaxDelay < p.BaseDelay:
		return fmt.Errorf("%w: max delay must not be below base delay", ErrInvalidPolicy)
	}
	return nil
}

// Delay returns the wait before retry n, where n=1 is the first retry.
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(n-1))
	if d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// ExhaustedError is returned when every attempt was rejected with a
// retryable error. It unwraps to the last rejection so callers that only
// look at the error kind see the same thing as a single rejection.
type ExhaustedError struct {
	Op       string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: gave up after %d attempts: %v", e.Op, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// IsExhausted reports whether err came from a spent retry budget.
func IsExhausted(err error) bool {
	var ee *ExhaustedError
	return errors.As(err, &ee)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Retrier applies a Policy. It holds no per-call state and is safe for
// concurrent use.
type Retrier struct {
	policy    Policy
	retryable func(error) bool
	sleep     SleepFunc
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(r *Retrier)

// WithClassifier decides which errors are worth another attempt.
func WithClassifier(retryable func(error) bool) Option {
	return func(r *Retrier) {
		r.retryable = retryable
	}
}

// WithSleep replaces the timer-based wait, mainly for tests.
func WithSleep(sleep SleepFunc) Option {
	return func(r *Retrier) {
		r.sleep = sleep
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Retrier) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Retrier) {
		r.metrics = m
	}
}

// New constructs a Retrier. An invalid policy falls back to DefaultPolicy.
func New(policy Policy, opts ...Option) *Retrier {
	if policy.Validate() != nil {
		policy = DefaultPolicy()
	}
	r := &Retrier{
		policy:    policy,
		retryable: upstream.IsRateLimited,
		sleep:     sleepContext,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the policy in effect.
func (r *Retrier) Policy() Policy {
	return r.policy
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempt budget is spent.
func Do[T any](ctx context.Context, r *Retrier, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var last error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !r.retryable(err) {
			return zero, err
		}
		last = err

		if attempt == r.policy.MaxAttempts {
			break
		}

		delay := r.policy.Delay(attempt)
		r.logger.WarnContext(ctx, "upstream rate limited, retrying",
			"op", op,
			"attempt", attempt,
			"max_attempts", r.policy.MaxAttempts,
			"delay", delay,
		)
		r.metrics.IncrementRetry(op)

		if err := r.sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("%s: retry interrupted: %w", op, errors.Join(err, last))
		}
	}

	r.logger.ErrorContext(ctx, "retry budget exhausted, upstream still rate limiting",
		"op", op,
		"attempts", r.policy.MaxAttempts,
		"error", last,
	)
	r.metrics.IncrementRetryExhausted(op)
	return zero, &ExhaustedError{Op: op, Attempts: r.policy.MaxAttempts, Last: last}
}

// Wrap returns fn guarded by r, for callers that want to hold on to the
// retrying operation rather than call Do each time.
func Wrap[T any](r *Retrier, op string, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return Do(ctx, r, op, fn)
	}
}

// DoErr is Do for operations that return only an error.
func DoErr(ctx context.Context, r *Retrier, op string, fn func(context.Context) error) error {
	_, err := Do(ctx, r, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
