package blobstore

import (
	"context"
	"errors"
	"io"

	"github.com/hupe1980/fst/internal/cache"
	"github.com/hupe1980/fst/internal/mmap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBlockSize is the cache block size used when none is given.
	DefaultBlockSize = 64 << 10
	// DefaultCacheCapacity is the byte capacity of the default block cache.
	DefaultCacheCapacity = 64 << 20

	maxParallelFetches = 16
)

// CachingStore wraps a BlobStore and adds block-level read caching.
// Writes pass through and invalidate cached blocks of the blob.
type CachingStore struct {
	inner     BlobStore
	cache     cache.BlockCache
	blockSize int64
}

// NewCachingStore creates a new CachingStore.
// A nil cache selects a sharded LRU of DefaultCacheCapacity bytes;
// blockSize defaults to DefaultBlockSize if <= 0.
func NewCachingStore(inner BlobStore, c cache.BlockCache, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if c == nil {
		c = cache.NewShardedLRUBlockCache(DefaultCacheCapacity, nil)
	}
	return &CachingStore{
		inner:     inner,
		cache:     c,
		blockSize: blockSize,
	}
}

// Open opens a blob whose reads are served from the block cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &CachingBlob{
		inner:     b,
		cache:     s.cache,
		name:      name,
		blockSize: s.blockSize,
	}, nil
}

// Create creates a blob on the inner store. Cached blocks of an existing
// blob with the same name are dropped.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	s.invalidate(name)
	return s.inner.Create(ctx, name)
}

// Put writes a blob and invalidates cached blocks.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete removes a blob and invalidates cached blocks.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List delegates to the inner store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Stats returns block cache hits and misses.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.cache.Stats()
}

func (s *CachingStore) invalidate(name string) {
	s.cache.Invalidate(func(key cache.CacheKey) bool {
		return key.Path == name
	})
}

// CachingBlob wraps a Blob and uses the block cache for reads.
type CachingBlob struct {
	inner     Blob
	cache     cache.BlockCache
	name      string
	blockSize int64
}

func (b *CachingBlob) Close() error {
	return b.inner.Close()
}

func (b *CachingBlob) Size() int64 {
	return b.inner.Size()
}

func (b *CachingBlob) key(blk int64) cache.CacheKey {
	return cache.CacheKey{Path: b.name, Offset: blk * b.blockSize}
}

// ReadAt reads through the cache, fetching missing blocks from the inner blob.
func (b *CachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, mmap.ErrInvalidOffset
	}

	size := b.Size()
	if off >= size {
		return 0, io.EOF
	}
	end := min(off+int64(len(p)), size)

	startBlock := off / b.blockSize
	endBlock := (end - 1) / b.blockSize

	if err := b.fillCache(ctx, startBlock, endBlock); err != nil {
		return 0, err
	}

	total := 0
	for blk := startBlock; blk <= endBlock; blk++ {
		blkStart := blk * b.blockSize
		from := max(blkStart, off)
		to := min(blkStart+b.blockSize, end)

		data, err := b.fetchBlock(ctx, blk)
		if err != nil {
			return total, err
		}

		src := from - blkStart
		if src >= int64(len(data)) {
			break
		}
		total += copy(p[from-off:to-off], data[src:])
	}

	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}

type blockRun struct {
	start, count int64
}

// fillCache loads missing blocks in [startBlock, endBlock], fetching each
// contiguous run of misses with a single inner read.
func (b *CachingBlob) fillCache(ctx context.Context, startBlock, endBlock int64) error {
	var runs []blockRun
	for blk := startBlock; blk <= endBlock; blk++ {
		if _, ok := b.cache.Get(ctx, b.key(blk)); ok {
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].start+runs[n-1].count == blk {
			runs[n-1].count++
		} else {
			runs = append(runs, blockRun{start: blk, count: 1})
		}
	}
	if len(runs) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)

	size := b.Size()
	for _, run := range runs {
		g.Go(func() error {
			start := run.start * b.blockSize
			if start >= size {
				return nil
			}
			length := min(run.count*b.blockSize, size-start)

			buf := make([]byte, length)
			n, err := b.inner.ReadAt(gctx, buf, start)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			buf = buf[:n]

			for i := int64(0); i < run.count; i++ {
				lo := i * b.blockSize
				if lo >= int64(len(buf)) {
					break
				}
				hi := min(lo+b.blockSize, int64(len(buf)))
				// Copy so the cache does not pin the whole run buffer.
				block := make([]byte, hi-lo)
				copy(block, buf[lo:hi])
				b.cache.Set(gctx, b.key(run.start+i), block)
			}
			return nil
		})
	}
	return g.Wait()
}

// fetchBlock returns a block from the cache, reading it if it was evicted
// between fillCache and use.
func (b *CachingBlob) fetchBlock(ctx context.Context, blk int64) ([]byte, error) {
	key := b.key(blk)
	if data, ok := b.cache.Get(ctx, key); ok {
		return data, nil
	}

	buf := make([]byte, b.blockSize)
	n, err := b.inner.ReadAt(ctx, buf, blk*b.blockSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	data := buf[:n]
	if n > 0 {
		b.cache.Set(ctx, key, data)
	}
	return data, nil
}

// ReadRange returns a reader that pulls through the block cache.
func (b *CachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	return io.NopCloser(&contextSectionReader{blob: b, ctx: ctx, off: off, limit: off + length}), nil
}

// contextSectionReader adapts CachingBlob to io.Reader with a fixed context.
type contextSectionReader struct {
	blob  *CachingBlob
	ctx   context.Context
	off   int64
	limit int64
}

func (r *contextSectionReader) Read(p []byte) (int, error) {
	if r.off >= r.limit {
		return 0, io.EOF
	}
	if remaining := r.limit - r.off; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}
