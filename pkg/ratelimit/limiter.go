package ratelimit

import (
	"context"
	"time"
)

// Store counts hits per key within a rolling fixed window.
type Store interface {
	// Incr records one hit for key and returns the hit count in the
	// current window together with the window reset time.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Result describes the outcome of a limiter check.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Allowed reports whether the request fits the window.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long to wait before retrying, zero if allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Limiter enforces at most Limit hits per Window for each key.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

// New creates a Limiter backed by the given store.
func New(store Store, limit int, window time.Duration) (*Limiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, ErrInvalidConfig
	}
	return &Limiter{store: store, limit: limit, window: window}, nil
}

// Allow records a hit for key and reports whether it fits the window.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	count, resetAt, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		return nil, err
	}
	return &Result{
		Limit:     l.limit,
		Remaining: l.limit - int(count),
		ResetAt:   resetAt,
	}, nil
}
