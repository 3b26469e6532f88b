package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/hupe1980/fst/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_MaxEntries(t *testing.T) {
	c := NewLRU(Config[string, uint64]{MaxEntries: 2})

	require.True(t, c.Add("a", 1))
	require.True(t, c.Add("b", 2))

	// Touch "a" so "b" becomes the eviction victim.
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, uint64(1), v)

	require.True(t, c.Add("c", 3))
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)

	hits, misses, evictions := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, int64(1), evictions)
}

func TestLRU_Replace(t *testing.T) {
	c := NewLRU(Config[string, int]{MaxEntries: 2})
	c.Add("k", 1)
	c.Add("k", 2)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_ResourceAccounting(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 10})
	c := NewLRU(Config[string, int]{
		Cost:     func(k string, _ int) int64 { return int64(len(k)) },
		Resource: rc,
	})

	require.True(t, c.Add("aaaa", 1))
	require.True(t, c.Add("bbbb", 2))
	assert.Equal(t, int64(8), rc.MemoryUsage())

	// Controller refuses: entry is skipped, nothing is evicted.
	assert.False(t, c.Add("cccc", 3))
	assert.Equal(t, 2, c.Len())

	assert.True(t, c.Remove("aaaa"))
	assert.False(t, c.Remove("aaaa"))
	assert.Equal(t, int64(4), rc.MemoryUsage())

	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), rc.MemoryUsage())
}

func TestLRU_RemoveFunc(t *testing.T) {
	c := NewLRU(Config[string, int]{})
	for i := range 10 {
		c.Add(fmt.Sprintf("k%d", i), i)
	}

	removed := c.RemoveFunc(func(k string) bool { return strings.HasSuffix(k, "1") || k == "k2" })
	assert.Equal(t, 2, removed)
	assert.Equal(t, 8, c.Len())
}

func TestLRUBlockCache(t *testing.T) {
	ctx := context.Background()
	c := NewLRUBlockCache(50, nil)
	k := CacheKey{Path: "a.fst", Offset: 0}

	c.Set(ctx, k, make([]byte, 60))
	_, ok := c.Get(ctx, k)
	assert.False(t, ok, "block larger than capacity is not cached")

	c.Set(ctx, k, make([]byte, 30))
	c.Set(ctx, CacheKey{Path: "a.fst", Offset: 4096}, make([]byte, 30))
	assert.Equal(t, int64(30), c.Size())

	_, ok = c.Get(ctx, k)
	assert.False(t, ok, "older block evicted")

	c.Invalidate(func(key CacheKey) bool { return key.Path == "a.fst" })
	assert.Equal(t, int64(0), c.Size())

	hits, misses := c.Stats()
	assert.Equal(t, int64(0), hits)
	assert.Equal(t, int64(2), misses)
}

func TestShardedLRUBlockCache(t *testing.T) {
	ctx := context.Background()
	c := NewShardedLRUBlockCache(64<<20, nil)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				key := CacheKey{Path: fmt.Sprintf("blob-%d", w), Offset: int64(i) * 4096}
				c.Set(ctx, key, []byte{byte(i)})
				got, ok := c.Get(ctx, key)
				assert.True(t, ok)
				assert.Equal(t, []byte{byte(i)}, got)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(800), c.Size())
	hits, _ := c.Stats()
	assert.Equal(t, int64(800), hits)

	c.Invalidate(func(CacheKey) bool { return true })
	assert.Equal(t, int64(0), c.Size())
}
