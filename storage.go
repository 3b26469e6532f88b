package fst

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/fst/blobstore"
	"github.com/hupe1980/fst/internal/compress"
	"golang.org/x/sync/errgroup"
)

const maxParallelLoads = 8

// Save writes f to store under name. With WithCompression the bytes are
// wrapped in a block-compressed container, which Load detects.
func Save(ctx context.Context, store blobstore.BlobStore, name string, f *FST, opts ...Option) error {
	o := applyOptions(append([]Option{WithContext(ctx)}, opts...))
	size, err := save(ctx, store, name, f.Bytes(), o)
	o.logger.LogSave(o.ctx, name, size, o.compression.String(), err)
	return err
}

func save(ctx context.Context, store blobstore.BlobStore, name string, data []byte, o options) (int64, error) {
	if o.compression == CompressionNone {
		return int64(len(data)), store.Put(ctx, name, data)
	}

	w, err := store.Create(ctx, name)
	if err != nil {
		return 0, err
	}
	cw, err := compress.NewWriter(w, o.compression.codec(), int64(len(data)), o.compressionBlock)
	if err == nil {
		if _, err = cw.Write(data); err == nil {
			err = cw.Close()
		}
	}
	if err != nil {
		_ = blobstore.Abort(w)
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return cw.BytesWritten(), nil
}

// Load opens the FST stored under name. Mappable blobs (for example from a
// LocalStore) are used without copying and stay open until the FST is
// closed; compressed containers are decompressed into memory.
func Load(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (*FST, error) {
	o := applyOptions(append([]Option{WithContext(ctx)}, opts...))

	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	data, mapped, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		_ = blob.Close()
		return nil, err
	}

	if compress.IsContainer(data) {
		raw, err := compress.Decode(data)
		_ = blob.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
		}
		return open(raw, o)
	}

	f, err := open(data, o)
	if err != nil || !mapped {
		_ = blob.Close()
		return f, err
	}
	f.closer = blob.Close
	return f, nil
}

// LoadAll loads several FSTs concurrently, for example as the sources of a
// set operation. On error every FST already opened is closed.
func LoadAll(ctx context.Context, store blobstore.BlobStore, names []string, opts ...Option) ([]*FST, error) {
	fsts := make([]*FST, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, name := range names {
		g.Go(func() error {
			f, err := Load(gctx, store, name, opts...)
			if err != nil {
				return fmt.Errorf("fst: load %q: %w", name, err)
			}
			fsts[i] = f
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var errs []error
		for _, f := range fsts {
			if f != nil {
				errs = append(errs, f.Close())
			}
		}
		return nil, errors.Join(append([]error{err}, errs...)...)
	}
	return fsts, nil
}
