package ratelimiter

import (
	"context"
	"fmt"
)

// Window applies one Policy to a Store. It is the per-policy counter: each
// policy gets its own Window and Store.
type Window struct {
	store  Store
	policy Policy
}

// NewWindow validates the policy and binds it to store.
func NewWindow(store Store, policy Policy) (*Window, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: %s: nil store", ErrInvalidPolicy, policy.Name)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Window{store: store, policy: policy}, nil
}

// Policy returns the window's policy.
func (w *Window) Policy() Policy {
	return w.policy
}

// Allow checks and, when there is room, consumes one slot for key.
// A denied result has Remaining == 0 and ResetAt at the end of the current window.
func (w *Window) Allow(ctx context.Context, key string) (*Result, error) {
	u, err := w.store.Take(ctx, key, w.policy.Window, w.policy.Limit)
	if err != nil {
		return nil, fmt.Errorf("ratelimiter: %s: %w", w.policy.Name, err)
	}
	return w.result(key, u, u.Admitted), nil
}

// Status reports the current state of key without consuming.
func (w *Window) Status(ctx context.Context, key string) (*Result, error) {
	u, err := w.store.Peek(ctx, key, w.policy.Window)
	if err != nil {
		return nil, fmt.Errorf("ratelimiter: %s: %w", w.policy.Name, err)
	}
	return w.result(key, u, u.Count < w.policy.Limit), nil
}

// Release rolls back an admitted result. It is a no-op when the window the
// result was admitted in has already ended.
func (w *Window) Release(ctx context.Context, res *Result) error {
	if res == nil || !res.Allowed() {
		return nil
	}
	if res.Policy != w.policy.Name {
		return fmt.Errorf("%w: %s != %s", ErrInvalidResult, res.Policy, w.policy.Name)
	}
	if err := w.store.Release(ctx, res.Key, res.WindowStart); err != nil {
		return fmt.Errorf("ratelimiter: %s: release: %w", w.policy.Name, err)
	}
	return nil
}

// Reset clears the counter for key.
func (w *Window) Reset(ctx context.Context, key string) error {
	return w.store.Reset(ctx, key)
}

func (w *Window) result(key string, u Usage, allowed bool) *Result {
	remaining := w.policy.Limit - u.Count
	if !allowed || remaining < 0 {
		remaining = 0
	}
	return &Result{
		Policy:      w.policy.Name,
		Key:         key,
		Limit:       w.policy.Limit,
		Remaining:   remaining,
		WindowStart: u.WindowStart,
		ResetAt:     u.WindowStart.Add(w.policy.Window),
		allowed:     allowed,
	}
}
