package bloom

import (
	"context"
	"fmt"
	"testing"
	"time"

	"socialfeed/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var seenOpts = Options{ExpectedItems: 1000, FalsePositiveRate: 0.01}

func newTestFilter(t *testing.T) (*Filter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewFilter(client, zap.NewNop()), mr
}

func TestFilter_AddThenMightContain(t *testing.T) {
	f, _ := newTestFilter(t)
	ctx := context.Background()

	require.NoError(t, f.Add(ctx, "bf:seen", "post-42", seenOpts))

	ok, err := f.MightContain(ctx, "bf:seen", "post-42", seenOpts)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFilter_EmptyFilterContainsNothing(t *testing.T) {
	f, _ := newTestFilter(t)

	ok, err := f.MightContain(context.Background(), "bf:seen", "post-999", seenOpts)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFilter_NoFalseNegatives(t *testing.T) {
	f, _ := newTestFilter(t)
	ctx := context.Background()

	items := make([]string, 300)
	for i := range items {
		items[i] = fmt.Sprintf("post-%d", i)
		require.NoError(t, f.Add(ctx, "bf:many", items[i], seenOpts))
	}
	for _, item := range items {
		ok, err := f.MightContain(ctx, "bf:many", item, seenOpts)
		require.NoError(t, err)
		assert.True(t, ok, "false negative for %s", item)
	}
}

func TestFilter_FalsePositiveRateIsBounded(t *testing.T) {
	f, _ := newTestFilter(t)
	ctx := context.Background()
	opts := Options{ExpectedItems: 200, FalsePositiveRate: 0.01}

	for i := 0; i < 200; i++ {
		require.NoError(t, f.Add(ctx, "bf:fp", fmt.Sprintf("in-%d", i), opts))
	}
	positives := 0
	for i := 0; i < 2000; i++ {
		ok, err := f.MightContain(ctx, "bf:fp", fmt.Sprintf("out-%d", i), opts)
		require.NoError(t, err)
		if ok {
			positives++
		}
	}
	// 1% target; allow generous slack for a small sample
	assert.Less(t, float64(positives)/2000, 0.05)
}

func TestFilter_AddWithTTLSetsExpiry(t *testing.T) {
	f, mr := newTestFilter(t)

	require.NoError(t, f.AddWithTTL(context.Background(), "bf:ttl", "post-1", seenOpts, 10*time.Minute))
	assert.Equal(t, 10*time.Minute, mr.TTL("bf:ttl"))

	mr.FastForward(11 * time.Minute)
	ok, err := f.MightContain(context.Background(), "bf:ttl", "post-1", seenOpts)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFilter_RejectsInvalidOptions(t *testing.T) {
	f, _ := newTestFilter(t)
	ctx := context.Background()

	cases := []Options{
		{ExpectedItems: 0, FalsePositiveRate: 0.01},
		{ExpectedItems: -5, FalsePositiveRate: 0.01},
		{ExpectedItems: 100, FalsePositiveRate: 0},
		{ExpectedItems: 100, FalsePositiveRate: 1},
		{ExpectedItems: 100, FalsePositiveRate: 1.5},
	}
	for _, opts := range cases {
		_, err := f.MightContain(ctx, "bf:x", "a", opts)
		assert.True(t, utils.IsKind(err, utils.KindValidation), "mightContain %+v: %v", opts, err)

		err = f.Add(ctx, "bf:x", "a", opts)
		assert.True(t, utils.IsKind(err, utils.KindValidation), "add %+v: %v", opts, err)
	}
}

func TestFilter_RejectsNonPositiveTTL(t *testing.T) {
	f, mr := newTestFilter(t)

	err := f.AddWithTTL(context.Background(), "bf:x", "a", seenOpts, 0)
	assert.True(t, utils.IsKind(err, utils.KindValidation))
	err = f.AddWithTTL(context.Background(), "bf:x", "a", seenOpts, -time.Second)
	assert.True(t, utils.IsKind(err, utils.KindValidation))
	assert.False(t, mr.Exists("bf:x"))
}

func TestFilter_BackendFailureIsDatabaseError(t *testing.T) {
	f, mr := newTestFilter(t)
	mr.Close()

	_, err := f.MightContain(context.Background(), "bf:seen", "post-1", seenOpts)
	assert.True(t, utils.IsKind(err, utils.KindDatabase), "got %v", err)

	err = f.Add(context.Background(), "bf:seen", "post-1", seenOpts)
	assert.True(t, utils.IsKind(err, utils.KindDatabase), "got %v", err)
}
