package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy() Policy {
	return Policy{
		MaxAttempts:       3,
		RateLimitAttempts: 5,
		InitialBackoff:    1 * time.Millisecond,
		RateLimitBackoff:  2 * time.Millisecond,
		MaxBackoff:        10 * time.Millisecond,
		Multiplier:        2.0,
	}
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	v, err := Do(context.Background(), fastPolicy(), func(_ context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "ok" {
		t.Errorf("expected ok, got %q", v)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_SuccessAfterTransientFailures(t *testing.T) {
	p := fastPolicy()
	p.MaxAttempts = 4

	var calls, retries int
	p.OnRetry = func(int, error) { retries++ }

	v, err := Do(context.Background(), p, func(_ context.Context) (int, error) {
		calls++
		if calls < 4 {
			return 0, NewTransientError(errors.New("temporary"), 503)
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("expected value from 4th call, got %d", v)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
	if retries != 3 {
		t.Errorf("expected 3 backoff delays, got %d", retries)
	}
}

func TestDefaultPolicy_ThreeFailuresSucceedOnFourth(t *testing.T) {
	p := DefaultPolicy()
	p.InitialBackoff = 1 * time.Millisecond
	p.RateLimitBackoff = 1 * time.Millisecond
	p.MaxBackoff = 5 * time.Millisecond

	var calls, retries int
	p.OnRetry = func(int, error) { retries++ }

	v, err := Do(context.Background(), p, func(_ context.Context) (int, error) {
		calls++
		if calls <= 3 {
			return 0, NewTransientError(errors.New("temporary"), 503)
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("expected value from 4th attempt, got %d", v)
	}
	if calls != 4 {
		t.Errorf("expected 4 attempts under the default ceiling, got %d", calls)
	}
	if retries != 3 {
		t.Errorf("expected 3 backoff delays, got %d", retries)
	}
}

func TestDefaultPolicy_RateLimitCeiling(t *testing.T) {
	p := DefaultPolicy()
	p.RateLimitBackoff = 1 * time.Millisecond
	p.MaxBackoff = 5 * time.Millisecond

	var calls int
	_, err := Do(context.Background(), p, func(_ context.Context) (int, error) {
		calls++
		return 0, NewRateLimitError(errors.New("429"), 0)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 6 {
		t.Errorf("expected 6 attempts under the default rate-limit ceiling, got %d", calls)
	}
}

func TestDo_ExhaustsRetries(t *testing.T) {
	var calls int
	_, err := Do(context.Background(), fastPolicy(), func(_ context.Context) (int, error) {
		calls++
		return 0, NewTransientError(errors.New("always fails"), 500)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_NonRetryableFailsFast(t *testing.T) {
	var calls int
	_, err := Do(context.Background(), fastPolicy(), func(_ context.Context) (int, error) {
		calls++
		return 0, errors.New("bad request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RateLimitRaisesCeiling(t *testing.T) {
	var calls int
	_, err := Do(context.Background(), fastPolicy(), func(_ context.Context) (int, error) {
		calls++
		return 0, NewRateLimitError(errors.New("429"), 0)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 5 {
		t.Errorf("expected 5 calls under rate-limit ceiling, got %d", calls)
	}
}

func TestDo_HonorsRetryAfter(t *testing.T) {
	p := fastPolicy()
	p.MaxBackoff = 50 * time.Millisecond

	var calls int
	start := time.Now()
	_, err := Do(context.Background(), p, func(_ context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, NewRateLimitError(errors.New("429"), 20*time.Millisecond)
		}
		return 1, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected Retry-After delay to be honored, elapsed %v", elapsed)
	}
}

func TestDo_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	_, err := Do(ctx, fastPolicy(), func(_ context.Context) (int, error) {
		calls++
		cancel()
		return 0, NewTransientError(errors.New("temporary"), 503)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call after cancellation, got %d", calls)
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("expected %d to be transient", code)
		}
	}
	for _, code := range []int{200, 400, 403, 404, 429} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("expected %d not to be transient", code)
		}
	}
}

func TestBreaker_OpensAndRecovers(t *testing.T) {
	b := NewBreaker("test", 2, 10*time.Millisecond)

	if !b.Allow() {
		t.Fatal("closed breaker must allow")
	}
	b.Failure()
	b.Failure()
	if b.State() != StateOpen {
		t.Fatalf("expected open after threshold, got %v", b.State())
	}
	if b.Allow() {
		t.Error("open breaker must not allow before cooldown")
	}

	time.Sleep(15 * time.Millisecond)
	if !b.Allow() {
		t.Fatal("expected half-open probe after cooldown")
	}
	if b.Allow() {
		t.Error("only one probe may run half-open")
	}

	b.Success()
	if b.State() != StateClosed {
		t.Errorf("expected closed after probe success, got %v", b.State())
	}
}
