package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperlocaleyes/backend/core/logger"
)

// bucket is the fixed-window state of one key.
type bucket struct {
	windowStart time.Time
	window      time.Duration
	count       int
}

// expired reports whether the bucket's window ended more than one full
// window ago, which makes it safe to evict.
func (b *bucket) expired(now time.Time) bool {
	return !now.Before(b.windowStart.Add(2 * b.window))
}

// MemoryStore implements Store with an in-process map guarded by one mutex.
// Each policy owns its own MemoryStore.
type MemoryStore struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time

	// Configuration
	now             func() time.Time
	sweepInterval   time.Duration
	cleanupInterval time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger

	// Lifecycle of the background sweeper
	lifeMu  sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool

	// Observability metrics
	bucketsCreated atomic.Int64
	bucketsRemoved atomic.Int64
}

// MemoryStoreStats provides observability metrics for monitoring and debugging
type MemoryStoreStats struct {
	BucketsCreated int64 // Total number of buckets created
	BucketsRemoved int64 // Total number of expired buckets evicted
	ActiveBuckets  int   // Current number of buckets
	IsRunning      bool  // Whether the background sweeper is running
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets the background sweep interval used by Start.
// Set to 0 to rely on inline sweeping only.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

// WithSweepInterval sets how often Take sweeps expired buckets inline.
// Set to 0 to disable inline sweeping.
func WithSweepInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.sweepInterval = interval
	}
}

// WithMemoryStoreShutdownTimeout sets the graceful shutdown timeout.
func WithMemoryStoreShutdownTimeout(timeout time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if timeout > 0 {
			ms.shutdownTimeout = timeout
		}
	}
}

// WithMemoryStoreLogger sets the logger for internal operations.
func WithMemoryStoreLogger(l *slog.Logger) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if l != nil {
			ms.logger = l
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStore creates a new in-memory store.
// Call Start (or Run) to enable background sweeping.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		buckets:         make(map[string]*bucket),
		now:             time.Now,
		sweepInterval:   time.Minute,
		cleanupInterval: 5 * time.Minute,
		shutdownTimeout: 30 * time.Second,
		logger:          logger.Nop(),
	}

	for _, opt := range opts {
		opt(ms)
	}

	ms.lastSweep = ms.now()
	return ms
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrContextCancelled, err)
	}
	return nil
}

// Take implements Store.
func (ms *MemoryStore) Take(ctx context.Context, key string, window time.Duration, limit int) (Usage, error) {
	if err := checkContext(ctx); err != nil {
		return Usage{}, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	if ms.sweepInterval > 0 && now.Sub(ms.lastSweep) >= ms.sweepInterval {
		ms.removeExpiredLocked(now)
	}

	b, ok := ms.buckets[key]
	if !ok {
		b = &bucket{windowStart: now, window: window}
		ms.buckets[key] = b
		ms.bucketsCreated.Add(1)
	}

	// The bucket boundary is the source of truth for the current period.
	if !now.Before(b.windowStart.Add(window)) {
		b.windowStart = now
		b.count = 0
	}
	b.window = window

	admitted := b.count < limit
	if admitted {
		b.count++
	}

	return Usage{WindowStart: b.windowStart, Count: b.count, Admitted: admitted}, nil
}

// Peek implements Store. A missing or elapsed bucket reads as an empty window
// starting now.
func (ms *MemoryStore) Peek(ctx context.Context, key string, window time.Duration) (Usage, error) {
	if err := checkContext(ctx); err != nil {
		return Usage{}, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	b, ok := ms.buckets[key]
	if !ok || !now.Before(b.windowStart.Add(window)) {
		return Usage{WindowStart: now}, nil
	}
	return Usage{WindowStart: b.windowStart, Count: b.count}, nil
}

// Release implements Store.
func (ms *MemoryStore) Release(ctx context.Context, key string, windowStart time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	b, ok := ms.buckets[key]
	if !ok || !b.windowStart.Equal(windowStart) || b.count == 0 {
		return nil
	}
	b.count--
	return nil
}

// Reset implements Store.
func (ms *MemoryStore) Reset(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.buckets, key)
	return nil
}

// Start runs the background sweeper until the context is cancelled or Stop
// is called. Use Run() for errgroup pattern or call this in a goroutine.
func (ms *MemoryStore) Start(ctx context.Context) error {
	ms.lifeMu.Lock()
	if ms.cancel != nil {
		ms.lifeMu.Unlock()
		return fmt.Errorf("memory store already started")
	}
	if ms.cleanupInterval <= 0 {
		ms.lifeMu.Unlock()
		return fmt.Errorf("cleanup interval must be > 0, got %v (use WithCleanupInterval to configure)", ms.cleanupInterval)
	}

	ctx, ms.cancel = context.WithCancel(ctx)
	done := make(chan struct{})
	ms.done = done
	ms.lifeMu.Unlock()

	ms.running.Store(true)
	defer func() {
		ms.running.Store(false)
		ms.lifeMu.Lock()
		if ms.done == done {
			ms.cancel, ms.done = nil, nil
		}
		ms.lifeMu.Unlock()
		close(done)
	}()

	ms.logger.InfoContext(ctx, "rate limit sweeper started",
		logger.Component("ratelimiter"),
		slog.Duration("cleanup_interval", ms.cleanupInterval))

	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ms.logger.InfoContext(context.Background(), "rate limit sweeper stopping",
				logger.Component("ratelimiter"))
			return ctx.Err()
		case <-ticker.C:
			if n := ms.Sweep(); n > 0 {
				ms.logger.DebugContext(ctx, "rate limit buckets evicted",
					logger.Component("ratelimiter"),
					logger.Count("evicted", n))
			}
		}
	}
}

// Stop gracefully shuts down the background sweeper with a timeout.
func (ms *MemoryStore) Stop() error {
	ms.lifeMu.Lock()
	if ms.cancel == nil {
		ms.lifeMu.Unlock()
		return fmt.Errorf("memory store not started")
	}
	cancel, done := ms.cancel, ms.done
	ms.cancel = nil
	ms.lifeMu.Unlock()

	cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), ms.shutdownTimeout)
	defer ctxCancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		ms.logger.WarnContext(context.Background(), "rate limit sweeper shutdown timeout exceeded",
			logger.Component("ratelimiter"),
			slog.Duration("timeout", ms.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", ms.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// With background sweeping disabled it only waits for ctx.
func (ms *MemoryStore) Run(ctx context.Context) func() error {
	return func() error {
		if ms.cleanupInterval <= 0 {
			<-ctx.Done()
			return nil
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- ms.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = ms.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// Sweep evicts buckets whose window expired more than one window ago and
// returns how many were removed. It takes the same lock as Take.
func (ms *MemoryStore) Sweep() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.removeExpiredLocked(ms.now())
}

func (ms *MemoryStore) removeExpiredLocked(now time.Time) int {
	ms.lastSweep = now

	removed := 0
	for key, b := range ms.buckets {
		if b.expired(now) {
			delete(ms.buckets, key)
			removed++
		}
	}

	if removed > 0 {
		ms.bucketsRemoved.Add(int64(removed))
	}
	return removed
}

// Stats returns current memory store statistics for observability and monitoring.
func (ms *MemoryStore) Stats() MemoryStoreStats {
	ms.mu.Lock()
	active := len(ms.buckets)
	ms.mu.Unlock()

	return MemoryStoreStats{
		BucketsCreated: ms.bucketsCreated.Load(),
		BucketsRemoved: ms.bucketsRemoved.Load(),
		ActiveBuckets:  active,
		IsRunning:      ms.running.Load(),
	}
}

// Healthcheck reports an error when background sweeping is configured but
// not running.
func (ms *MemoryStore) Healthcheck(ctx context.Context) error {
	if ms.cleanupInterval > 0 && !ms.running.Load() {
		return fmt.Errorf("rate limit sweeper is configured but not running")
	}
	return nil
}
