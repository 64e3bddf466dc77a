// Package ratelimiter implements fixed-window request counting with named
// policies.
//
// A bucket per key holds the start of its current window and a count. A
// check resets the bucket once now >= windowStart+window, then admits the
// request while count < limit. Denied results report Remaining == 0 and
// ResetAt == windowStart+window. The window boundary stored in the bucket is
// the only notion of "current period"; there is no wall-clock alignment.
//
// Each policy owns its own Window and MemoryStore, held by a Registry:
//
//	reg := ratelimiter.NewDefaultRegistry()
//	win, policy, err := reg.ForPolicy(ratelimiter.PolicyLogin)
//
//	res, err := win.Allow(ctx, clientIP)
//	if !res.Allowed() {
//		// 429 with policy.Message
//	}
//
// # Failed-attempt counting
//
// Policies with SkipSuccessful set (login) treat admission as a
// reservation. After the handler finishes, the caller releases it when
// policy.CountsStatus(status) is false:
//
//	if !policy.CountsStatus(status) {
//		_ = win.Release(ctx, res)
//	}
//
// Release is a no-op when the window the reservation belongs to has already
// ended, so a late release never corrupts a fresh window.
//
// # Memory
//
// Buckets whose window ended more than one window ago are evicted inline
// (at most once per sweep interval, on Take) and by the optional background
// sweeper started with Start/Run. Both take the store mutex used by Take.
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(reg.Run(ctx))
//
// State is process-local and lost on restart.
package ratelimiter
