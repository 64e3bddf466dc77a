package ratelimiter

import (
	"math"
	"time"
)

// Result describes a rate limit decision for one key.
type Result struct {
	Policy      string
	Key         string
	Limit       int
	Remaining   int
	WindowStart time.Time
	ResetAt     time.Time

	allowed bool
}

// Allowed reports whether the request was admitted.
func (r *Result) Allowed() bool {
	return r.allowed
}

// RetryAfter returns how long until the window resets, relative to now.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if d := r.ResetAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// ResetSeconds returns whole seconds until the window resets, rounded up.
func (r *Result) ResetSeconds(now time.Time) int {
	return int(math.Ceil(r.RetryAfter(now).Seconds()))
}
