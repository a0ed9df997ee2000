package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

// Limiter is a keyed token bucket. Keys let one limiter police several
// provider endpoints with independent budgets; the provider-side limit is
// global per key, not per symbol.
type Limiter struct {
	mu sync.Mutex
	m  map[string]*bucket
}

func New() *Limiter { return &Limiter{m: make(map[string]*bucket)} }

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	ok, _ := l.take(key, capacity, refillPerSec)
	return ok
}

// Wait blocks until a token is available for key or ctx is done. This is
// the pacing used between backfill windows in place of fixed sleeps.
func (l *Limiter) Wait(ctx context.Context, key string, capacity, refillPerSec float64) error {
	for {
		ok, wait := l.take(key, capacity, refillPerSec)
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// take consumes a token if possible, otherwise reports how long until the
// next one refills.
func (l *Limiter) take(key string, capacity, refillPerSec float64) (bool, time.Duration) {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
		l.m[key] = b
	}
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens -= 1
		return true, 0
	}
	if b.refillRate <= 0 {
		return false, time.Second
	}
	deficit := 1 - b.tokens
	return false, time.Duration(deficit / b.refillRate * float64(time.Second))
}
