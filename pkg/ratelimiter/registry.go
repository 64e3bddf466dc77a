package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

type entry struct {
	window *Window
	store  *MemoryStore
}

// Registry owns one Window and one MemoryStore per named policy. Stores are
// never shared between policies, and separate registries never interfere.
type Registry struct {
	mu        sync.RWMutex
	entries   map[string]entry
	storeOpts []MemoryStoreOption
}

// NewRegistry creates an empty registry. Options are applied to every store
// the registry creates.
func NewRegistry(opts ...MemoryStoreOption) *Registry {
	return &Registry{
		entries:   make(map[string]entry),
		storeOpts: opts,
	}
}

// NewDefaultRegistry creates a registry with the api, login and
// passwordReset policies.
func NewDefaultRegistry(opts ...MemoryStoreOption) *Registry {
	r := NewRegistry(opts...)
	for _, p := range []Policy{APIPolicy(), LoginPolicy(), PasswordResetPolicy()} {
		r.MustRegister(p)
	}
	return r
}

// Register adds a policy backed by a fresh MemoryStore.
func (r *Registry) Register(p Policy) (*Window, error) {
	store := NewMemoryStore(r.storeOpts...)
	w, err := NewWindow(store, p)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[p.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrPolicyExists, p.Name)
	}
	r.entries[p.Name] = entry{window: w, store: store}
	return w, nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(p Policy) *Window {
	w, err := r.Register(p)
	if err != nil {
		panic(err)
	}
	return w
}

// ForPolicy returns the window and policy registered under name.
func (r *Registry) ForPolicy(name string) (*Window, Policy, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, Policy{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
	return e.window, e.window.Policy(), nil
}

// Policies returns all registered policies sorted by name.
func (r *Registry) Policies() []Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Policy, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.window.Policy())
	}
	slices.SortFunc(out, func(a, b Policy) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Stats returns store statistics keyed by policy name.
func (r *Registry) Stats() map[string]MemoryStoreStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]MemoryStoreStats, len(r.entries))
	for name, e := range r.entries {
		out[name] = e.store.Stats()
	}
	return out
}

func (r *Registry) stores() []*MemoryStore {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*MemoryStore, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.store)
	}
	return out
}

// Run starts the background sweeper of every store and blocks until ctx is
// cancelled. It fits errgroup.Group.Go.
func (r *Registry) Run(ctx context.Context) func() error {
	return func() error {
		g, gctx := errgroup.WithContext(ctx)
		for _, s := range r.stores() {
			g.Go(s.Run(gctx))
		}
		return g.Wait()
	}
}

// Healthcheck reports unhealthy stores.
func (r *Registry) Healthcheck(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for name, e := range r.entries {
		if err := e.store.Healthcheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
