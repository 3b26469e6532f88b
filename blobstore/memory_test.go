package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("abcdef")
	require.NoError(t, store.Put(ctx, "a/1", data))
	data[0] = 'X' // Put copies

	w, err := store.Create(ctx, "a/2")
	require.NoError(t, err)
	_, err = w.Write([]byte("xyz"))
	require.NoError(t, err)

	_, err = store.Open(ctx, "a/2")
	assert.ErrorIs(t, err, ErrNotFound, "not visible before Close")
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), io.ErrClosedPipe)

	require.NoError(t, store.Put(ctx, "b/1", nil))

	names, err := store.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1", "a/2"}, names)

	blob, err := store.Open(ctx, "a/1")
	require.NoError(t, err)
	got, mapped, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.True(t, mapped)
	assert.Equal(t, "abcdef", string(got))

	empty, err := store.Open(ctx, "b/1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Size())

	require.NoError(t, store.Delete(ctx, "a/1"))
	require.NoError(t, store.Delete(ctx, "a/1"))
	_, err = store.Open(ctx, "a/1")
	assert.ErrorIs(t, err, ErrNotFound)
}

type plainBlob struct{ Blob }

func TestReadAll_NonMappable(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "x", []byte("payload")))

	blob, err := store.Open(ctx, "x")
	require.NoError(t, err)

	got, mapped, err := ReadAll(ctx, plainBlob{blob})
	require.NoError(t, err)
	assert.False(t, mapped)
	assert.Equal(t, "payload", string(got))
}

func TestAbort(t *testing.T) {
	ctx := context.Background()
	stores := map[string]BlobStore{
		"memory": NewMemoryStore(),
		"local":  NewLocalStore(t.TempDir()),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			w, err := store.Create(ctx, "partial")
			require.NoError(t, err)
			_, err = w.Write([]byte("half"))
			require.NoError(t, err)

			require.NoError(t, Abort(w))
			require.NoError(t, Abort(w))

			_, err = w.Write([]byte("more"))
			assert.ErrorIs(t, err, io.ErrClosedPipe)

			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, names)
		})
	}
}
