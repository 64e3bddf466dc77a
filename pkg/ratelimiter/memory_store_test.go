package ratelimiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperlocaleyes/backend/pkg/ratelimiter"
)

func TestMemoryStore_Take(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	store := ratelimiter.NewMemoryStore(ratelimiter.WithClock(clock.Now))

	u, err := store.Take(ctx, "k", time.Minute, 2)
	require.NoError(t, err)
	assert.True(t, u.Admitted)
	assert.Equal(t, 1, u.Count)
	assert.True(t, u.WindowStart.Equal(clock.Now()))

	clock.Advance(10 * time.Second)
	u, err = store.Take(ctx, "k", time.Minute, 2)
	require.NoError(t, err)
	assert.True(t, u.Admitted)
	assert.Equal(t, 2, u.Count)

	u, err = store.Take(ctx, "k", time.Minute, 2)
	require.NoError(t, err)
	assert.False(t, u.Admitted)
	assert.Equal(t, 2, u.Count, "denied requests are not counted")
}

func TestMemoryStore_InlineSweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	store := ratelimiter.NewMemoryStore(
		ratelimiter.WithClock(clock.Now),
		ratelimiter.WithSweepInterval(time.Minute),
	)

	_, err := store.Take(ctx, "stale", time.Minute, 10)
	require.NoError(t, err)

	// Expired, but not yet by a full extra window.
	clock.Advance(90 * time.Second)
	_, err = store.Take(ctx, "fresh", time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Stats().ActiveBuckets)

	clock.Advance(time.Minute)
	_, err = store.Take(ctx, "fresh", time.Minute, 10)
	require.NoError(t, err)

	stats := store.Stats()
	assert.Equal(t, 1, stats.ActiveBuckets)
	assert.Equal(t, int64(2), stats.BucketsCreated)
	assert.Equal(t, int64(1), stats.BucketsRemoved)
}

func TestMemoryStore_Sweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	store := ratelimiter.NewMemoryStore(
		ratelimiter.WithClock(clock.Now),
		ratelimiter.WithSweepInterval(0),
	)

	for _, k := range []string{"a", "b", "c"} {
		_, err := store.Take(ctx, k, time.Minute, 1)
		require.NoError(t, err)
	}
	clock.Advance(time.Minute)
	_, err := store.Take(ctx, "c", time.Minute, 1)
	require.NoError(t, err)

	assert.Equal(t, 0, store.Sweep())
	clock.Advance(time.Minute)
	assert.Equal(t, 2, store.Sweep(), "a and b expired by a full window, c was renewed")
	assert.Equal(t, 1, store.Stats().ActiveBuckets)
}

func TestMemoryStore_Peek(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	store := ratelimiter.NewMemoryStore(ratelimiter.WithClock(clock.Now))

	u, err := store.Peek(ctx, "missing", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Count)

	_, err = store.Take(ctx, "k", time.Minute, 5)
	require.NoError(t, err)
	u, err = store.Peek(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Count)

	clock.Advance(time.Minute)
	u, err = store.Peek(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Count)
	assert.Equal(t, int64(1), store.Stats().BucketsCreated, "peek never creates buckets")
}

func TestMemoryStore_StartStop(t *testing.T) {
	t.Parallel()

	t.Run("start and stop", func(t *testing.T) {
		t.Parallel()
		store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(10 * time.Millisecond))

		errCh := make(chan error, 1)
		go func() { errCh <- store.Start(context.Background()) }()

		require.Eventually(t, func() bool { return store.Stats().IsRunning }, time.Second, 5*time.Millisecond)
		assert.NoError(t, store.Healthcheck(context.Background()))
		assert.Error(t, store.Start(context.Background()), "second start fails")

		require.NoError(t, store.Stop())
		assert.ErrorIs(t, <-errCh, context.Canceled)
		assert.False(t, store.Stats().IsRunning)
	})

	t.Run("stop without start", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, ratelimiter.NewMemoryStore().Stop())
	})

	t.Run("start without interval", func(t *testing.T) {
		t.Parallel()
		store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
		assert.Error(t, store.Start(context.Background()))
		assert.NoError(t, store.Healthcheck(context.Background()))
	})

	t.Run("unhealthy when configured but not running", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, ratelimiter.NewMemoryStore().Healthcheck(context.Background()))
	})
}

func TestMemoryStore_Run(t *testing.T) {
	t.Parallel()

	t.Run("stops on context cancel", func(t *testing.T) {
		t.Parallel()
		store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(10 * time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- store.Run(ctx)() }()

		require.Eventually(t, func() bool { return store.Stats().IsRunning }, time.Second, 5*time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("Run did not return")
		}
	})

	t.Run("disabled sweeper waits for context", func(t *testing.T) {
		t.Parallel()
		store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.NoError(t, store.Run(ctx)())
	})
}
