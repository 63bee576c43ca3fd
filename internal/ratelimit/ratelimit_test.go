package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestJitteredFirstWaitIsImmediate(t *testing.T) {
	r := NewJittered(5*time.Second, 10*time.Second)

	start := time.Now()
	if err := r.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("first wait took %v, expected immediate", elapsed)
	}
}

func TestJitteredEnforcesMinDelay(t *testing.T) {
	r := NewJittered(100*time.Millisecond, 100*time.Millisecond)

	if err := r.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Now()
	if err := r.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("second wait took %v, expected at least ~100ms", elapsed)
	}
}

func TestJitteredRespectsCancellation(t *testing.T) {
	r := NewJittered(10*time.Second, 10*time.Second)

	if err := r.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := r.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestJitteredSwappedBounds(t *testing.T) {
	r := NewJittered(2*time.Second, 1*time.Second)
	if r.maxDelay != r.minDelay {
		t.Errorf("expected max clamped to min, got min=%v max=%v", r.minDelay, r.maxDelay)
	}
}

func TestAdaptiveBackoffOnErrors(t *testing.T) {
	a := NewAdaptive(1*time.Second, 2*time.Second)

	for i := 0; i < 3; i++ {
		a.RecordError()
	}

	if a.minDelay <= 1*time.Second {
		t.Errorf("expected min delay to grow after repeated errors, got %v", a.minDelay)
	}
	if a.maxDelay <= 2*time.Second {
		t.Errorf("expected max delay to grow after repeated errors, got %v", a.maxDelay)
	}
}

func TestAdaptiveSuccessResetsErrorCount(t *testing.T) {
	a := NewAdaptive(1*time.Second, 2*time.Second)

	a.RecordError()
	a.RecordError()
	a.RecordSuccess()
	a.RecordError()
	a.RecordError()

	if a.minDelay != 1*time.Second {
		t.Errorf("expected no backoff when errors are interleaved with success, got %v", a.minDelay)
	}
}
