package ratelimiter_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperlocaleyes/backend/pkg/ratelimiter"
)

func TestWindow_ConcurrentExactAdmissions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	for _, tc := range []struct{ n, m int }{{200, 50}, {1000, 1}, {64, 63}} {
		t.Run(fmt.Sprintf("n=%d m=%d", tc.n, tc.m), func(t *testing.T) {
			t.Parallel()

			w, err := ratelimiter.NewWindow(ratelimiter.NewMemoryStore(),
				ratelimiter.CustomPolicy("race", time.Hour, tc.m, ""))
			require.NoError(t, err)

			var allowed, denied atomic.Int64
			var wg sync.WaitGroup
			start := make(chan struct{})

			for range tc.n {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					res, err := w.Allow(ctx, "same-key")
					if err != nil {
						return
					}
					if res.Allowed() {
						allowed.Add(1)
					} else {
						denied.Add(1)
					}
				}()
			}
			close(start)
			wg.Wait()

			assert.Equal(t, int64(tc.m), allowed.Load())
			assert.Equal(t, int64(tc.n-tc.m), denied.Load())
		})
	}
}

func TestWindow_ConcurrentAllowRelease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	w, err := ratelimiter.NewWindow(ratelimiter.NewMemoryStore(),
		ratelimiter.CustomPolicy("release", time.Hour, 10, ""))
	require.NoError(t, err)

	// Every admitted request is released, as for successful logins.
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := w.Allow(ctx, "k")
			if err == nil && res.Allowed() {
				_ = w.Release(ctx, res)
			}
		}()
	}
	wg.Wait()

	st, err := w.Status(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 10, st.Remaining)
}

func TestWindow_DoubleReleaseDoesNotGoBelowZero(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	w, err := ratelimiter.NewWindow(ratelimiter.NewMemoryStore(),
		ratelimiter.CustomPolicy("double", time.Hour, 2, ""))
	require.NoError(t, err)

	res, err := w.Allow(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, w.Release(ctx, res))
	require.NoError(t, w.Release(ctx, res))

	for range 2 {
		r, err := w.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, r.Allowed())
	}
	r, err := w.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, r.Allowed())
}

func TestRegistry_PoliciesDoNotInterfere(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r1 := ratelimiter.NewDefaultRegistry()
	r2 := ratelimiter.NewDefaultRegistry()

	reset1, _, err := r1.ForPolicy(ratelimiter.PolicyPasswordReset)
	require.NoError(t, err)
	for range 3 {
		_, err := reset1.Allow(ctx, "ip")
		require.NoError(t, err)
	}
	res, err := reset1.Allow(ctx, "ip")
	require.NoError(t, err)
	require.False(t, res.Allowed())

	api1, _, err := r1.ForPolicy(ratelimiter.PolicyAPI)
	require.NoError(t, err)
	res, err = api1.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, res.Allowed(), "other policy of the same registry is untouched")

	reset2, _, err := r2.ForPolicy(ratelimiter.PolicyPasswordReset)
	require.NoError(t, err)
	res, err = reset2.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, res.Allowed(), "other registry is untouched")
}
