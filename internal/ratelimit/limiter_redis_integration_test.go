//go:build integration

package ratelimit_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aibetix/internal/ratelimit"
	"aibetix/pkg/testutil/containers"
)

func TestRedisLimiterAllowsUpToLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client := containers.NewRedisContainer(t).NewClient(t)
	limiter := ratelimit.NewRedis(client, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, "geo-check", "user-1")
		require.NoError(t, err)
		require.True(t, res.Allowed, "request %d should be allowed", i+1)
		require.Equal(t, 3, res.Limit)
	}

	res, err := limiter.Allow(ctx, "geo-check", "user-1")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Zero(t, res.Remaining)
	require.Positive(t, res.RetryAfter)
}

func TestRedisLimiterIsolatesSubjectsAndRoutes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client := containers.NewRedisContainer(t).NewClient(t)
	limiter := ratelimit.NewRedis(client, 1, time.Minute)
	ctx := context.Background()

	res, err := limiter.Allow(ctx, "geo-check", "user-1")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "geo-check", "user-1")
	require.NoError(t, err)
	require.False(t, res.Allowed)

	// A different subject and a different route still have headroom.
	res, err = limiter.Allow(ctx, "geo-check", "user-2")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "identity-verification", "user-1")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestRedisLimiterWindowExpires(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client := containers.NewRedisContainer(t).NewClient(t)
	limiter := ratelimit.NewRedis(client, 1, time.Second)
	ctx := context.Background()

	res, err := limiter.Allow(ctx, "geo-check", "user-1")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "geo-check", "user-1")
	require.NoError(t, err)
	require.False(t, res.Allowed)

	time.Sleep(1100 * time.Millisecond)

	res, err = limiter.Allow(ctx, "geo-check", "user-1")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

// Counting is atomic across concurrent callers sharing one window.
func TestRedisLimiterConcurrentCounting(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client := containers.NewRedisContainer(t).NewClient(t)
	limiter := ratelimit.NewRedis(client, 10, time.Minute)
	ctx := context.Background()

	const callers = 30
	var wg sync.WaitGroup
	var allowed atomic.Int32

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := limiter.Allow(ctx, "geo-check", "user-1")
			if err == nil && res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(10), allowed.Load())
}
