package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Limiter paces product-page visits within a session. Wait blocks until
// enough time has passed since the previous visit or the context is
// cancelled.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Jittered spaces visits by a random delay drawn from [min, max). Random
// spacing keeps the request pattern from looking like a fixed-interval bot.
type Jittered struct {
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
	mu         sync.Mutex
}

func NewJittered(minDelay, maxDelay time.Duration) *Jittered {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Jittered{
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

func (r *Jittered) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.lastAction)
	delay := r.nextDelay()

	if elapsed < delay {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay - elapsed):
		}
	}

	r.lastAction = time.Now()
	return nil
}

func (r *Jittered) nextDelay() time.Duration {
	if r.maxDelay == r.minDelay {
		return r.minDelay
	}
	return r.minDelay + time.Duration(rand.Int63n(int64(r.maxDelay-r.minDelay)))
}

// Adaptive wraps Jittered and stretches the delay window after repeated
// extraction failures, which usually means the site started throttling.
// Sustained success slowly shrinks the window back.
type Adaptive struct {
	*Jittered
	errorCount    int
	successCount  int
	errorBudget   int
	backoffFactor float64
}

func NewAdaptive(minDelay, maxDelay time.Duration) *Adaptive {
	return &Adaptive{
		Jittered:      NewJittered(minDelay, maxDelay),
		errorBudget:   3,
		backoffFactor: 1.5,
	}
}

func (a *Adaptive) RecordSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.successCount++
	a.errorCount = 0

	if a.successCount > 5 {
		newMin := time.Duration(float64(a.minDelay) * 0.9)
		if newMin < time.Second {
			newMin = time.Second
		}
		a.minDelay = newMin
		a.successCount = 0
	}
}

func (a *Adaptive) RecordError() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.errorCount++
	a.successCount = 0

	if a.errorCount >= a.errorBudget {
		newMin := time.Duration(float64(a.minDelay) * a.backoffFactor)
		newMax := time.Duration(float64(a.maxDelay) * a.backoffFactor)

		if newMin > 60*time.Second {
			newMin = 60 * time.Second
		}
		if newMax > 120*time.Second {
			newMax = 120 * time.Second
		}

		a.minDelay = newMin
		a.maxDelay = newMax
		a.errorCount = 0
	}
}
