package cache

import (
	"context"
	"encoding/binary"
	"hash/maphash"

	"github.com/hupe1980/fst/internal/resource"
)

const numShards = 64

// ShardedLRUBlockCache distributes blocks over 64 independently locked LRUs.
type ShardedLRUBlockCache struct {
	shards [numShards]*LRUBlockCache
	seed   maphash.Seed
}

// NewShardedLRUBlockCache splits capacity evenly across the shards.
func NewShardedLRUBlockCache(capacity int64, rc *resource.Controller) *ShardedLRUBlockCache {
	shardCapacity := max(capacity/numShards, 1)

	s := &ShardedLRUBlockCache{seed: maphash.MakeSeed()}
	for i := range numShards {
		s.shards[i] = NewLRUBlockCache(shardCapacity, rc)
	}

	return s
}

func (s *ShardedLRUBlockCache) shard(key CacheKey) *LRUBlockCache {
	var h maphash.Hash
	h.SetSeed(s.seed)
	_, _ = h.WriteString(key.Path)

	var off [8]byte
	binary.LittleEndian.PutUint64(off[:], uint64(key.Offset))
	_, _ = h.Write(off[:])

	return s.shards[h.Sum64()%numShards]
}

func (s *ShardedLRUBlockCache) Get(ctx context.Context, key CacheKey) ([]byte, bool) {
	return s.shard(key).Get(ctx, key)
}

func (s *ShardedLRUBlockCache) Set(ctx context.Context, key CacheKey, b []byte) {
	s.shard(key).Set(ctx, key, b)
}

// Invalidate visits every shard.
func (s *ShardedLRUBlockCache) Invalidate(predicate func(key CacheKey) bool) {
	for _, shard := range s.shards {
		shard.Invalidate(predicate)
	}
}

// Stats aggregates hit and miss counts over all shards.
func (s *ShardedLRUBlockCache) Stats() (hits, misses int64) {
	for _, shard := range s.shards {
		h, m := shard.Stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// Size returns the cached bytes over all shards.
func (s *ShardedLRUBlockCache) Size() int64 {
	var total int64
	for _, shard := range s.shards {
		total += shard.Size()
	}
	return total
}
