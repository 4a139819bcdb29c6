package ratelimit

import (
	"context"
	"time"
)

// Result reports the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long to wait before the next request may be
// allowed. Zero when the current request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Limiter is the interface consumed by middleware and handlers.
type Limiter interface {
	// Allow checks and, if permitted, records one request for key.
	Allow(ctx context.Context, key string) (*Result, error)

	// Reset clears the window for key.
	Reset(ctx context.Context, key string) error
}

// Store persists request timestamps per key within a moving window.
type Store interface {
	// RecordIfAllowed atomically counts timestamps in the window and
	// records a new one when the count is below limit. It returns whether
	// the timestamp was recorded and the count after the call.
	RecordIfAllowed(ctx context.Context, key string, ts time.Time, window time.Duration, limit int) (allowed bool, count int64, err error)

	// CountInWindow returns the number of timestamps currently in the window.
	CountInWindow(ctx context.Context, key string, window time.Duration) (int64, error)

	// Delete removes all state for key.
	Delete(ctx context.Context, key string) error
}
