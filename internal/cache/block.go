package cache

import (
	"context"

	"github.com/hupe1980/fst/internal/resource"
)

// LRUBlockCache is a BlockCache bounded by the total bytes it holds.
type LRUBlockCache struct {
	lru *LRU[CacheKey, []byte]
}

// NewLRUBlockCache creates a block cache holding at most capacity bytes.
// If rc is non-nil, cached bytes are charged against it.
func NewLRUBlockCache(capacity int64, rc *resource.Controller) *LRUBlockCache {
	return &LRUBlockCache{
		lru: NewLRU(Config[CacheKey, []byte]{
			MaxCost:  capacity,
			Cost:     func(_ CacheKey, b []byte) int64 { return int64(len(b)) },
			Resource: rc,
		}),
	}
}

func (c *LRUBlockCache) Get(_ context.Context, key CacheKey) ([]byte, bool) {
	return c.lru.Get(key)
}

func (c *LRUBlockCache) Set(_ context.Context, key CacheKey, b []byte) {
	c.lru.Add(key, b)
}

func (c *LRUBlockCache) Invalidate(predicate func(key CacheKey) bool) {
	c.lru.RemoveFunc(predicate)
}

func (c *LRUBlockCache) Stats() (hits, misses int64) {
	hits, misses, _ = c.lru.Stats()
	return hits, misses
}

// Size returns the cached bytes.
func (c *LRUBlockCache) Size() int64 {
	return c.lru.Cost()
}
