package cache

import "context"

// CacheKey identifies an immutable block of a named blob.
type CacheKey struct {
	// Path names the blob.
	Path string
	// Offset is the block-aligned byte offset within the blob.
	Offset int64
}

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(ctx context.Context, key CacheKey) (b []byte, ok bool)
	// Set caches a block. Callers must not modify b afterwards.
	Set(ctx context.Context, key CacheKey, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key CacheKey) bool)
	// Stats returns hit and miss counts.
	Stats() (hits, misses int64)
}
