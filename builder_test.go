package fst

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fst/internal/fs"
)

func buildBytes(t *testing.T, kvs []KeyValue, opts ...Option) []byte {
	t.Helper()

	b, err := NewMemoryBuilder(opts...)
	require.NoError(t, err)
	for _, kv := range kvs {
		require.NoError(t, b.Insert(kv.Key, kv.Value))
	}
	data, err := b.Bytes()
	require.NoError(t, err)
	return data
}

func buildFST(t *testing.T, kvs []KeyValue, opts ...Option) *FST {
	t.Helper()

	f, err := Open(buildBytes(t, kvs, opts...))
	require.NoError(t, err)
	return f
}

func stringKVs(keys ...string) []KeyValue {
	kvs := make([]KeyValue, len(keys))
	for i, k := range keys {
		kvs[i] = KeyValue{Key: []byte(k), Value: uint64(i)}
	}
	return kvs
}

func sequentialKVs(n int) []KeyValue {
	kvs := make([]KeyValue, n)
	for i := range kvs {
		kvs[i] = KeyValue{
			Key:   fmt.Appendf(nil, "key%05d", i*7),
			Value: uint64(i) * 1000003,
		}
	}
	return kvs
}

func TestBuilder_RoundTrip(t *testing.T) {
	kvs := sequentialKVs(2000)
	f := buildFST(t, kvs)

	assert.Equal(t, len(kvs), f.Len())
	assert.Equal(t, Version, f.Version())

	for _, kv := range kvs {
		v, ok, err := f.Get(kv.Key)
		require.NoError(t, err)
		require.True(t, ok, "key %q", kv.Key)
		require.Equal(t, kv.Value, v, "key %q", kv.Key)
	}

	got, err := f.Stream().Into().Collect()
	require.NoError(t, err)
	assert.Equal(t, kvs, got)
}

func TestBuilder_LargeOutputs(t *testing.T) {
	kvs := []KeyValue{
		{Key: []byte("a"), Value: ^uint64(0)},
		{Key: []byte("ab"), Value: 1},
		{Key: []byte("abc"), Value: ^uint64(0) - 1},
		{Key: []byte("b"), Value: 0},
		{Key: []byte("ba"), Value: 1 << 40},
	}
	f := buildFST(t, kvs)

	for _, kv := range kvs {
		v, ok, err := f.Get(kv.Key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, kv.Value, v, "key %q", kv.Key)
	}
}

func TestBuilder_EmptyKey(t *testing.T) {
	f := buildFST(t, []KeyValue{
		{Key: []byte{}, Value: 42},
		{Key: []byte("a"), Value: 7},
	})

	v, ok, err := f.Get(nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), v)

	root, err := f.Root()
	require.NoError(t, err)
	assert.True(t, root.IsFinal())
	assert.Equal(t, uint64(42), root.FinalOutput())

	keys, err := f.Stream().Into().Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"", "a"}, keys)
}

func TestBuilder_Empty(t *testing.T) {
	f := buildFST(t, nil)

	assert.Equal(t, 0, f.Len())

	ok, err := f.Contains([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.Contains(nil)
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := f.Stream().Into().Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestBuilder_OutOfOrder(t *testing.T) {
	tests := []struct {
		name      string
		keys      []string
		duplicate bool
	}{
		{name: "smaller", keys: []string{"b", "a"}},
		{name: "prefix after longer", keys: []string{"ab", "a"}},
		{name: "duplicate", keys: []string{"a", "a"}, duplicate: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewMemoryBuilder()
			require.NoError(t, err)

			require.NoError(t, b.InsertString(tt.keys[0], 1))
			err = b.InsertString(tt.keys[1], 2)
			require.ErrorIs(t, err, ErrOutOfOrder)

			var ooe *OutOfOrderError
			require.ErrorAs(t, err, &ooe)
			assert.Equal(t, []byte(tt.keys[0]), ooe.Previous)
			assert.Equal(t, []byte(tt.keys[1]), ooe.Key)
			assert.Equal(t, tt.duplicate, ooe.Duplicate)

			// The builder is closed but still inspectable.
			assert.Equal(t, uint64(1), b.Len())
			assert.Equal(t, []byte(tt.keys[0]), b.LastKey())
			assert.ErrorIs(t, b.InsertString("zzz", 3), ErrBuilderClosed)
			assert.ErrorIs(t, b.Finish(), ErrBuilderClosed)
			_, err = b.Bytes()
			assert.ErrorIs(t, err, ErrBuilderClosed)
		})
	}
}

func TestBuilder_InsertAfterFinish(t *testing.T) {
	b, err := NewMemoryBuilder()
	require.NoError(t, err)
	require.NoError(t, b.InsertString("a", 1))
	require.NoError(t, b.Finish())

	assert.ErrorIs(t, b.InsertString("b", 2), ErrBuilderClosed)
	assert.ErrorIs(t, b.Finish(), ErrBuilderClosed)

	// Bytes keeps working after a successful finish.
	first, err := b.Bytes()
	require.NoError(t, err)
	second, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuilder_SharesSuffixes(t *testing.T) {
	b, err := NewMemoryBuilder()
	require.NoError(t, err)
	require.NoError(t, b.InsertString("food", 0))
	require.NoError(t, b.InsertString("good", 0))
	data, err := b.Bytes()
	require.NoError(t, err)

	stats := b.Stats()
	assert.Equal(t, uint64(2), stats.Keys)
	assert.Equal(t, uint64(5), stats.NodesWritten)
	assert.Equal(t, uint64(4), stats.RegistryHits)
	assert.Equal(t, uint64(5), stats.RegistryMisses)
	assert.Equal(t, int64(len(data)), stats.BytesWritten)

	f, err := Open(data)
	require.NoError(t, err)
	root, err := f.Root()
	require.NoError(t, err)
	require.Equal(t, 2, root.NumTransitions())

	trans := root.Transitions()
	assert.Equal(t, byte('f'), trans[0].Label)
	assert.Equal(t, byte('g'), trans[1].Label)
	assert.Equal(t, trans[0].Addr, trans[1].Addr)
}

func TestBuilder_WithoutRegistry(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{name: "disabled", opt: WithRegistrySize(0)},
		{name: "memory limit", opt: WithMemoryLimit(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewMemoryBuilder(tt.opt)
			require.NoError(t, err)
			require.NoError(t, b.InsertString("food", 5))
			require.NoError(t, b.InsertString("good", 6))
			data, err := b.Bytes()
			require.NoError(t, err)

			assert.Equal(t, uint64(9), b.Stats().NodesWritten)
			assert.Zero(t, b.Stats().RegistryHits)

			// Without sharing the FST is larger but answers the same.
			f, err := Open(data)
			require.NoError(t, err)
			v, ok, err := f.Get([]byte("good"))
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, uint64(6), v)
		})
	}
}

func TestBuilder_SmallRegistry(t *testing.T) {
	kvs := sequentialKVs(500)
	full := buildBytes(t, kvs)
	small := buildBytes(t, kvs, WithRegistrySize(2))

	assert.GreaterOrEqual(t, len(small), len(full))

	f, err := Open(small)
	require.NoError(t, err)
	got, err := f.Stream().Into().Collect()
	require.NoError(t, err)
	assert.Equal(t, kvs, got)
}

func TestBuilder_WriterMatchesMemory(t *testing.T) {
	kvs := sequentialKVs(300)
	want := buildBytes(t, kvs)

	var buf bytes.Buffer
	b, err := NewBuilder(&buf)
	require.NoError(t, err)
	for _, kv := range kvs {
		require.NoError(t, b.Insert(kv.Key, kv.Value))
	}
	require.NoError(t, b.Finish())

	assert.Equal(t, want, buf.Bytes())

	_, err = b.Bytes()
	assert.ErrorIs(t, err, ErrNotMemoryBuilder)
}

func TestBuilder_IOLimit(t *testing.T) {
	kvs := sequentialKVs(200)
	want := buildBytes(t, kvs)
	got := buildBytes(t, kvs, WithIOLimit(1<<30))
	assert.Equal(t, want, got)
}

func TestBuilder_CreateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.fst")
	kvs := sequentialKVs(1000)

	b, err := CreateFile(path)
	require.NoError(t, err)
	for _, kv := range kvs {
		require.NoError(t, b.Insert(kv.Key, kv.Value))
	}
	require.NoError(t, b.Finish())

	f, err := OpenFile(path, WithAccessPattern(AccessRandom))
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	assert.Equal(t, buildBytes(t, kvs), f.Bytes())

	v, ok, err := f.Get(kvs[500].Key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, kvs[500].Value, v)
}

func TestBuilder_CreateFileMissingDir(t *testing.T) {
	_, err := CreateFile(filepath.Join(t.TempDir(), "missing", "keys.fst"))
	require.Error(t, err)

	var se *SinkError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "create", se.Op)
}

func TestBuilder_SinkFailure(t *testing.T) {
	tests := []struct {
		name  string
		fault fs.Fault
		op    string
	}{
		{name: "write", fault: fs.Fault{FailAfterBytes: 100}, op: "write"},
		{name: "sync", fault: fs.Fault{FailAfterBytes: -1, FailOnSync: true}, op: "sync"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faulty := fs.NewFaultyFS(fs.Default)
			faulty.AddRule(".fst", tt.fault)

			b, err := CreateFile(filepath.Join(t.TempDir(), "keys.fst"), WithFileSystem(faulty))
			require.NoError(t, err)
			for _, kv := range sequentialKVs(50) {
				require.NoError(t, b.Insert(kv.Key, kv.Value))
			}

			err = b.Finish()
			require.Error(t, err)
			assert.ErrorIs(t, err, fs.ErrInjected)

			var se *SinkError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.op, se.Op)

			assert.ErrorIs(t, b.Finish(), ErrBuilderClosed)
			assert.True(t, errors.Is(b.InsertString("zzz", 1), ErrBuilderClosed))
		})
	}
}

func TestBuilder_Metrics(t *testing.T) {
	mc := &BasicMetricsCollector{}
	b, err := NewMemoryBuilder(WithMetricsCollector(mc))
	require.NoError(t, err)
	require.NoError(t, b.InsertString("a", 1))
	require.NoError(t, b.InsertString("b", 2))
	require.Error(t, b.InsertString("b", 3))

	stats := mc.GetStats()
	assert.Equal(t, int64(3), stats.InsertCount)
	assert.Equal(t, int64(1), stats.InsertErrors)
}
