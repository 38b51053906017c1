package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls retry behavior with exponential backoff and jitter. Two
// attempt ceilings apply: MaxAttempts for generic transient failures and
// RateLimitAttempts (with RateLimitBackoff as base delay) once a
// RateLimitError shows up in the chain.
type Policy struct {
	// MaxAttempts is the total number of attempts (including the first try)
	// for generic transient errors: 3 retries after the initial call. A value
	// of 1 means no retries. Default: 4.
	MaxAttempts int

	// RateLimitAttempts is the ceiling once the call has been rate limited:
	// 5 retries after the initial call. Default: 6.
	RateLimitAttempts int

	// InitialBackoff is the base delay before the first retry. Default: 500ms.
	InitialBackoff time.Duration

	// RateLimitBackoff is the base delay after a 429. Default: 2s.
	RateLimitBackoff time.Duration

	// MaxBackoff caps the backoff duration. Default: 30s.
	MaxBackoff time.Duration

	// Multiplier scales the backoff after each attempt. Default: 2.0.
	Multiplier float64

	// JitterFraction adds random jitter as a fraction of the computed delay
	// (0.0 = no jitter, 0.5 = ±50%). Default: 0.25.
	JitterFraction float64

	// ShouldRetry optionally overrides the default transient-error check.
	ShouldRetry func(err error) bool

	// OnRetry is called before each retry sleep with attempt number and error.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy returns the retry policy used for catalog and search calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       4,
		RateLimitAttempts: 6,
		InitialBackoff:    500 * time.Millisecond,
		RateLimitBackoff:  2 * time.Second,
		MaxBackoff:        30 * time.Second,
		Multiplier:        2.0,
		JitterFraction:    0.25,
	}
}

// Do executes fn with retry logic according to p, preserving the value from
// the successful call. Only transient errors are retried; context
// cancellation stops retries immediately.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = applyDefaults(p)

	shouldRetry := p.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	var lastErr error
	rateLimited := false

	for attempt := 0; ; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}
		if !shouldRetry(lastErr) {
			return zero, lastErr
		}
		if IsRateLimited(lastErr) {
			rateLimited = true
		}

		ceiling := p.MaxAttempts
		if rateLimited {
			ceiling = p.RateLimitAttempts
		}
		if attempt >= ceiling-1 {
			return zero, lastErr
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, lastErr)
		}

		timer := time.NewTimer(backoffDelay(attempt, rateLimited, lastErr, p))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
}

func applyDefaults(p Policy) Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 4
	}
	if p.RateLimitAttempts <= 0 {
		p.RateLimitAttempts = 6
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 500 * time.Millisecond
	}
	if p.RateLimitBackoff <= 0 {
		p.RateLimitBackoff = 2 * time.Second
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 30 * time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	if p.JitterFraction < 0 {
		p.JitterFraction = 0
	}
	return p
}

// backoffDelay computes the sleep before the next attempt. A server-provided
// Retry-After wins over the computed exponential delay.
func backoffDelay(attempt int, rateLimited bool, err error, p Policy) time.Duration {
	base := p.InitialBackoff
	if rateLimited {
		base = p.RateLimitBackoff

		var rl *RateLimitError
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			if rl.RetryAfter > p.MaxBackoff {
				return p.MaxBackoff
			}
			return rl.RetryAfter
		}
	}

	delay := float64(base) * math.Pow(p.Multiplier, float64(attempt))
	if delay > float64(p.MaxBackoff) {
		delay = float64(p.MaxBackoff)
	}

	if p.JitterFraction > 0 {
		jitterRange := delay * p.JitterFraction
		delay += (rand.Float64()*2 - 1) * jitterRange
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(service, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
