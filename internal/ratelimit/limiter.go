package ratelimit

import (
	"context"
	"time"
)

// Counter increments a per-key counter that expires after window.
// It returns the new count and the time left in the window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter allows at most limit hits per key in each fixed window.
// A nil *Limiter allows everything.
type Limiter struct {
	counter Counter
	limit   int64
	window  time.Duration
	prefix  string
}

func New(counter Counter, prefix string, limit int64, window time.Duration) *Limiter {
	return &Limiter{counter: counter, limit: limit, window: window, prefix: prefix}
}

// Allow records one hit for key.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	if l == nil || l.counter == nil || l.limit <= 0 {
		return Decision{Allowed: true}, nil
	}

	count, ttl, err := l.counter.Incr(ctx, l.prefix+key, l.window)
	if err != nil {
		return Decision{Allowed: true}, err
	}

	if count > l.limit {
		if ttl <= 0 {
			ttl = l.window
		}
		return Decision{Allowed: false, RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Remaining: l.limit - count}, nil
}
