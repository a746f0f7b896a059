//go:build integration

package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"healthspend/internal/stats"
	"healthspend/pkg/testutil/containers"
)

func TestRedisCacheRoundTrip(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	c := stats.NewRedisCache(rc.Client, time.Minute)

	in := stats.Overview{TotalAmount: 42.5, ExpenseRows: 2, OperatorCount: 1}
	require.NoError(t, c.Set(ctx, "stats:overview", in))

	var out stats.Overview
	hit, err := c.Get(ctx, "stats:overview", &out)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, in, out)
}

func TestRedisCacheMiss(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	c := stats.NewRedisCache(rc.Client, time.Minute)

	var out stats.Overview
	hit, err := c.Get(context.Background(), "stats:overview", &out)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestRedisCacheExpiry(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	c := stats.NewRedisCache(rc.Client, 50*time.Millisecond)

	require.NoError(t, c.Set(ctx, "stats:overview", stats.Overview{TotalAmount: 1}))
	time.Sleep(200 * time.Millisecond)

	var out stats.Overview
	hit, err := c.Get(ctx, "stats:overview", &out)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestRedisCacheFlushDropsOnlyStatsKeys(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	c := stats.NewRedisCache(rc.Client, time.Minute)

	require.NoError(t, c.Set(ctx, "stats:overview", stats.Overview{TotalAmount: 1}))
	require.NoError(t, c.Set(ctx, "stats:region-share", []stats.RegionShare{{RegionCode: "SP"}}))
	require.NoError(t, rc.Client.Set(ctx, "unrelated", "keep", 0).Err())

	require.NoError(t, c.Flush(ctx))

	var out stats.Overview
	hit, err := c.Get(ctx, "stats:overview", &out)
	require.NoError(t, err)
	require.False(t, hit)

	val, err := rc.Client.Get(ctx, "unrelated").Result()
	require.NoError(t, err)
	require.Equal(t, "keep", val)
}
