package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderCache_MissThenHit(t *testing.T) {
	var loads atomic.Int32

	c, err := NewLoaderCache[string, []float32](4, HashKey)
	require.NoError(t, err)

	load := func(_ context.Context, text string) ([]float32, error) {
		loads.Add(1)

		return []float32{float32(len(text))}, nil
	}

	ctx := context.Background()

	v, hit, err := c.Get(ctx, "app crashes", load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []float32{11}, v)

	v, hit, err = c.Get(ctx, "app crashes", load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []float32{11}, v)
	assert.Equal(t, int32(1), loads.Load())
}

func TestLoaderCache_ErrorsAreNotCached(t *testing.T) {
	c, err := NewLoaderCache[string, int](4, func(s string) string { return s })
	require.NoError(t, err)

	boom := errors.New("upstream down")
	calls := 0
	load := func(context.Context, string) (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}

		return 7, nil
	}

	_, _, err = c.Get(context.Background(), "k", load)
	require.ErrorIs(t, err, boom)

	v, hit, err := c.Get(context.Background(), "k", load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, v)
}

func TestLoaderCache_ConcurrentMissesShareResult(t *testing.T) {
	var loads atomic.Int32

	c, err := NewLoaderCache[string, int](4, func(s string) string { return s })
	require.NoError(t, err)

	release := make(chan struct{})
	load := func(context.Context, string) (int, error) {
		loads.Add(1)
		<-release

		return 42, nil
	}

	var wg sync.WaitGroup

	results := make([]int, 8)
	for i := range results {
		wg.Go(func() {
			v, _, err := c.Get(context.Background(), "same", load)
			assert.NoError(t, err)

			results[i] = v
		})
	}

	close(release)
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, 42, v)
	}

	assert.GreaterOrEqual(t, loads.Load(), int32(1))
	assert.LessOrEqual(t, loads.Load(), int32(8))
}

func TestLoaderCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewLoaderCache[string, string](2, func(s string) string { return s })
	require.NoError(t, err)

	ctx := context.Background()
	loads := map[string]int{}
	load := func(_ context.Context, k string) (string, error) {
		loads[k]++

		return "v-" + k, nil
	}

	for _, k := range []string{"a", "b", "c"} {
		_, _, err := c.Get(ctx, k, load)
		require.NoError(t, err)
	}

	_, hit, err := c.Get(ctx, "c", load)
	require.NoError(t, err)
	assert.True(t, hit)

	v, hit, err := c.Get(ctx, "a", load)
	require.NoError(t, err)
	assert.False(t, hit, "oldest entry evicted")
	assert.Equal(t, "v-a", v)
	assert.Equal(t, 2, loads["a"])
	assert.Equal(t, 1, loads["c"])
}

func TestHashKey(t *testing.T) {
	assert.Len(t, HashKey("x"), 64)
	assert.Equal(t, HashKey("same text"), HashKey("same text"))
	assert.NotEqual(t, HashKey("a"), HashKey("b"))
}
