package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Default policy values. The base delay follows the upstream inference
// backend's rate-limit guidance; the cap keeps a fully backed-off task
// from stalling a run for minutes.
const (
	// DefaultMaxAttempts is the total number of calls, including the
	// first. Three attempts absorb momentary rate limiting without
	// hammering an unhealthy backend.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the first backoff delay. Doubles each attempt.
	DefaultBaseDelay = 10 * time.Second

	// DefaultMaxDelay caps the backoff delay regardless of attempt count.
	DefaultMaxDelay = 2 * time.Minute

	// jitterFraction is the maximum relative jitter applied to each
	// delay, e.g. 0.2 means the delay varies by up to ±20%.
	jitterFraction = 0.2
)

// Class is the retry classification of an error.
type Class int

const (
	// ClassRetryable marks transient failures worth retrying.
	ClassRetryable Class = iota

	// ClassFatal marks failures that retrying cannot fix.
	ClassFatal
)

// Classifier decides whether an error is worth retrying. The caller
// injects classification so the policy stays free of backend knowledge.
type Classifier func(error) Class

// FinalError wraps the last error after all retry attempts are
// exhausted. The attempt count is carried for outcome bookkeeping.
type FinalError struct {
	// Attempts is the number of calls made before giving up.
	Attempts int

	// Err is the last underlying error.
	Err error
}

// Error implements the error interface.
func (e *FinalError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the last underlying error for errors.Is/As chains.
func (e *FinalError) Unwrap() error {
	return e.Err
}

// Policy wraps calls with bounded exponential backoff.
type Policy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration

	// sleep waits for the given duration or until the context is done.
	// Replaceable in tests to observe delays without real waiting.
	sleep func(ctx context.Context, d time.Duration) error

	// jitter returns a uniform random value in [-1, 1).
	jitter func() float64
}

// Option configures a Policy.
type Option func(*Policy)

// WithMaxAttempts sets the total attempt count. Values below one are
// ignored.
func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		if n >= 1 {
			p.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the first backoff delay.
func WithBaseDelay(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.baseDelay = d
		}
	}
}

// WithMaxDelay caps the backoff delay.
func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.maxDelay = d
		}
	}
}

// withSleep replaces the sleep function. Test hook.
func withSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Policy) {
		p.sleep = sleep
	}
}

// New creates a Policy with the given options applied over defaults.
func New(opts ...Option) *Policy {
	p := &Policy{
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		maxDelay:    DefaultMaxDelay,
		sleep:       sleepContext,
		jitter: func() float64 {
			return rand.Float64()*2 - 1 //nolint:gosec // Jitter does not need crypto randomness
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Do invokes fn up to the configured attempt count, backing off between
// retryable failures. It returns the number of attempts made along with
// the final error state:
//
//   - nil error on success
//   - the original error, unwrapped, when classified fatal
//   - the context error when cancelled during backoff
//   - *FinalError wrapping the last error when retries are exhausted
//
// No delay occurs after a fatal error or after the last attempt.
func (p *Policy) Do(ctx context.Context, classify Classifier, fn func(ctx context.Context) error) (int, error) {
	var lastErr error

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return attempt, nil
		}

		if classify(lastErr) == ClassFatal {
			return attempt, lastErr
		}

		// Last attempt exhausted; no point delaying before giving up.
		if attempt == p.maxAttempts {
			break
		}

		if err := p.sleep(ctx, p.delayFor(attempt)); err != nil {
			return attempt, err
		}
	}

	return p.maxAttempts, &FinalError{Attempts: p.maxAttempts, Err: lastErr}
}

// delayFor computes the backoff delay after the given attempt number:
// base × 2^(attempt-1), jittered by up to ±20%, capped at maxDelay.
func (p *Policy) delayFor(attempt int) time.Duration {
	delay := p.baseDelay << (attempt - 1)
	if delay > p.maxDelay || delay <= 0 {
		delay = p.maxDelay
	}

	jittered := time.Duration(float64(delay) * (1 + jitterFraction*p.jitter()))
	if jittered > p.maxDelay {
		jittered = p.maxDelay
	}
	if jittered < 0 {
		jittered = 0
	}
	return jittered
}

// sleepContext waits for d or until the context is done, whichever
// comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
