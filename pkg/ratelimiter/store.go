package ratelimiter

import (
	"context"
	"time"
)

// Usage is a snapshot of one key's bucket.
type Usage struct {
	WindowStart time.Time
	Count       int
	Admitted    bool
}

// Store keeps fixed-window counters. Implementations must make Take atomic
// with respect to concurrent callers for the same key.
type Store interface {
	// Take admits a request if the bucket has room, resetting it first when
	// the window has elapsed.
	Take(ctx context.Context, key string, window time.Duration, limit int) (Usage, error)
	// Peek returns the bucket without consuming.
	Peek(ctx context.Context, key string, window time.Duration) (Usage, error)
	// Release gives back one admission if the bucket is still in the window
	// that started at windowStart.
	Release(ctx context.Context, key string, windowStart time.Time) error
	// Reset drops the bucket.
	Reset(ctx context.Context, key string) error
}
