package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	in := Overview{TotalAmount: 1234.5, ExpenseRows: 3}
	require.NoError(t, c.Set(ctx, keyOverview, in))

	var out Overview
	hit, err := c.Get(ctx, keyOverview, &out)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, in, out)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	var out Overview
	hit, err := c.Get(context.Background(), keyOverview, &out)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }
	require.NoError(t, c.Set(ctx, keyOverview, Overview{TotalAmount: 1}))

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	var out Overview
	hit, err := c.Get(ctx, keyOverview, &out)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestMemoryCacheFlush(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, keyOverview, Overview{TotalAmount: 1}))
	require.NoError(t, c.Set(ctx, keyRegionShare, []RegionShare{{RegionCode: "SP"}}))
	require.NoError(t, c.Flush(ctx))

	var out Overview
	hit, err := c.Get(ctx, keyOverview, &out)
	require.NoError(t, err)
	require.False(t, hit)
}
