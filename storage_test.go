package fst

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fst/blobstore"
	"github.com/hupe1980/fst/internal/fs"
)

func TestSaveLoad(t *testing.T) {
	kvs := sequentialKVs(3000)

	tests := []struct {
		name        string
		compression Compression
	}{
		{name: "none", compression: CompressionNone},
		{name: "lz4", compression: CompressionLZ4},
		{name: "zstd", compression: CompressionZSTD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := blobstore.NewMemoryStore()
			f := buildFST(t, kvs)

			require.NoError(t, Save(ctx, store, "keys.fst", f,
				WithCompression(tt.compression),
				WithCompressionBlockSize(4096),
			))

			loaded, err := Load(ctx, store, "keys.fst")
			require.NoError(t, err)
			defer func() { require.NoError(t, loaded.Close()) }()

			assert.Equal(t, f.Bytes(), loaded.Bytes())

			v, ok, err := loaded.Get(kvs[1234].Key)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, kvs[1234].Value, v)
		})
	}
}

func TestSaveLoad_Compressed(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	f := buildFST(t, sequentialKVs(3000))

	require.NoError(t, Save(ctx, store, "plain.fst", f))
	require.NoError(t, Save(ctx, store, "small.fst", f, WithCompression(CompressionZSTD)))

	plain, err := store.Open(ctx, "plain.fst")
	require.NoError(t, err)
	defer plain.Close()
	small, err := store.Open(ctx, "small.fst")
	require.NoError(t, err)
	defer small.Close()

	assert.Equal(t, int64(f.Size()), plain.Size())
	assert.Less(t, small.Size(), plain.Size())
}

func TestLoad_LocalStore(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewLocalStore(t.TempDir())
	f := buildFST(t, stringKVs(boss...))

	require.NoError(t, Save(ctx, store, "sets/boss.fst", f))

	loaded, err := Load(ctx, store, "sets/boss.fst")
	require.NoError(t, err)

	got, err := loaded.Range().Ge([]byte("m")).Into().Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"max", "roy", "stevie"}, got)

	require.NoError(t, loaded.Close())
	// Closing twice is harmless.
	require.NoError(t, loaded.Close())
}

func TestLoad_CachingStore(t *testing.T) {
	ctx := context.Background()
	inner := blobstore.NewMemoryStore()
	store := blobstore.NewCachingStore(inner, nil, 512)
	kvs := sequentialKVs(500)

	require.NoError(t, Save(ctx, store, "keys.fst", buildFST(t, kvs)))

	loaded, err := Load(ctx, store, "keys.fst")
	require.NoError(t, err)
	defer loaded.Close()

	got, err := loaded.Stream().Into().Collect()
	require.NoError(t, err)
	assert.Equal(t, kvs, got)
}

func TestSave_FailedWriteLeavesNoBlob(t *testing.T) {
	ctx := context.Background()
	faulty := fs.NewFaultyFS(fs.Default)
	faulty.AddRule("", fs.Fault{FailAfterBytes: 0})
	store := blobstore.NewLocalStore(t.TempDir(), blobstore.WithFileSystem(faulty))

	f := buildFST(t, sequentialKVs(500))
	err := Save(ctx, store, "broken.fst", f, WithCompression(CompressionZSTD))
	require.ErrorIs(t, err, fs.ErrInjected)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	t.Run("not found", func(t *testing.T) {
		_, err := Load(ctx, store, "missing.fst")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("corrupt", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "junk.fst", []byte("definitely not an fst")))
		_, err := Load(ctx, store, "junk.fst")
		assert.ErrorIs(t, err, ErrCorruptData)
	})

	t.Run("truncated container", func(t *testing.T) {
		f := buildFST(t, sequentialKVs(100))
		require.NoError(t, Save(ctx, store, "z.fst", f, WithCompression(CompressionLZ4)))

		blob, err := store.Open(ctx, "z.fst")
		require.NoError(t, err)
		data, _, err := blobstore.ReadAll(ctx, blob)
		require.NoError(t, err)
		require.NoError(t, blob.Close())

		require.NoError(t, store.Put(ctx, "z.fst", data[:len(data)-1]))
		_, err = Load(ctx, store, "z.fst")
		assert.ErrorIs(t, err, ErrCorruptData)
	})
}

func TestLoadAll(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	a, b, c := opStreams(t)
	names := []string{"a.fst", "b.fst", "c.fst"}
	for i, f := range []*FST{a, b, c} {
		require.NoError(t, Save(ctx, store, names[i], f))
	}

	fsts, err := LoadAll(ctx, store, names)
	require.NoError(t, err)
	require.Len(t, fsts, 3)

	ob := NewOpBuilder()
	for _, f := range fsts {
		ob.Add(f.Stream().Into())
	}
	got, err := ob.Intersection().Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, got)

	for _, f := range fsts {
		require.NoError(t, f.Close())
	}

	_, err = LoadAll(ctx, store, []string{"a.fst", "missing.fst"})
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
