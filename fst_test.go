package fst

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fst/internal/hash"
)

// rawFST assembles a serialized FST from hand-written node records laid out
// back to back after the header.
func rawFST(root uint64, keys uint64, nodes ...[]byte) []byte {
	data := appendHeader(nil)
	for _, n := range nodes {
		data = append(data, n...)
	}
	t := trailer{
		root:     root,
		keys:     keys,
		checksum: hash.CRC32C(data),
		version:  Version,
		magic:    Magic,
	}
	return t.append(data)
}

func TestOpen_Invalid(t *testing.T) {
	valid := buildBytes(t, stringKVs("bar", "baz", "foo"))
	n := len(valid)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{name: "empty", mutate: func([]byte) []byte { return nil }},
		{name: "too short", mutate: func(d []byte) []byte { return d[:headerSize+trailerSize-1] }},
		{name: "trailer magic", mutate: func(d []byte) []byte {
			binary.LittleEndian.PutUint32(d[n-4:], 0xdeadbeef)
			return d
		}},
		{name: "header magic", mutate: func(d []byte) []byte {
			d[0] ^= 0xff
			return d
		}},
		{name: "root below header", mutate: func(d []byte) []byte {
			binary.LittleEndian.PutUint64(d[n-trailerSize:], 3)
			return d
		}},
		{name: "root past body", mutate: func(d []byte) []byte {
			binary.LittleEndian.PutUint64(d[n-trailerSize:], uint64(n-trailerSize))
			return d
		}},
		{name: "checksum field", mutate: func(d []byte) []byte {
			d[n-16] ^= 0x01
			return d
		}},
		{name: "body byte", mutate: func(d []byte) []byte {
			d[headerSize] ^= 0x40
			return d
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.mutate(bytes.Clone(valid)))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCorruptData)
		})
	}
}

func TestOpen_VersionMismatch(t *testing.T) {
	valid := buildBytes(t, stringKVs("a", "b"))

	t.Run("trailer", func(t *testing.T) {
		d := bytes.Clone(valid)
		binary.LittleEndian.PutUint32(d[len(d)-8:], 2)

		_, err := Open(d)
		require.ErrorIs(t, err, ErrVersionMismatch)

		var vme *VersionMismatchError
		require.ErrorAs(t, err, &vme)
		assert.Equal(t, Version, vme.Expected)
		assert.Equal(t, uint32(2), vme.Actual)
	})

	t.Run("header", func(t *testing.T) {
		d := bytes.Clone(valid)
		binary.LittleEndian.PutUint32(d[4:], 7)

		_, err := Open(d)
		var vme *VersionMismatchError
		require.ErrorAs(t, err, &vme)
		assert.Equal(t, uint32(7), vme.Actual)
	})
}

func TestOpen_SkipChecksum(t *testing.T) {
	d := buildBytes(t, stringKVs("a", "b"))
	d[len(d)-16] ^= 0x01

	_, err := Open(d)
	require.ErrorIs(t, err, ErrCorruptData)

	f, err := Open(d, WithVerifyChecksum(false))
	require.NoError(t, err)
	ok, err := f.Contains([]byte("b"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpen_Truncated(t *testing.T) {
	valid := buildBytes(t, stringKVs("apple", "banana", "cherry", "date"))

	for n := 0; n < len(valid); n++ {
		_, err := Open(valid[:n])
		require.Error(t, err, "length %d", n)
	}
}

func TestOpen_CorruptNodes(t *testing.T) {
	leaf := []byte{flagFinal, 0, 0}

	tests := []struct {
		name string
		data []byte
	}{
		{name: "unknown flags", data: rawFST(8, 0, []byte{0x80, 0, 0})},
		{name: "bad widths", data: rawFST(8, 0, []byte{flagFinal, 0, 0x90})},
		{name: "output on non-final", data: rawFST(8, 0, []byte{flagFinalOutput, 0, 0, 5})},
		{name: "truncated transitions", data: rawFST(8, 0, []byte{0, 2, 0x01, 'a'})},
		{name: "self loop", data: rawFST(8, 1, []byte{0, 1, 0x01, 'a', 8})},
		{name: "forward target", data: rawFST(8, 1, []byte{0, 1, 0x01, 'a', 12}, leaf)},
		{name: "labels not ascending", data: rawFST(11, 2, leaf, []byte{0, 2, 0x01, 'b', 'a', 8, 8})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.data)
			assert.ErrorIs(t, err, ErrCorruptData)
		})
	}
}

func TestFST_CorruptChild(t *testing.T) {
	// The root is well formed; its only child is not.
	data := rawFST(11, 1, []byte{0x80, 0, 0}, []byte{0, 1, 0x01, 'a', 8})

	f, err := Open(data)
	require.NoError(t, err)

	_, _, err = f.Get([]byte("a"))
	assert.ErrorIs(t, err, ErrCorruptData)

	s := f.Stream().Into()
	assert.False(t, s.Next())
	assert.ErrorIs(t, s.Err(), ErrCorruptData)
}

func TestFST_HandBuilt(t *testing.T) {
	// "a" -> 3, "b" -> 10 sharing one final leaf.
	data := rawFST(11, 2,
		[]byte{flagFinal, 0, 0},
		[]byte{0, 2, 0x11, 'a', 'b', 3, 10, 8, 8},
	)

	f, err := Open(data)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())

	kvs, err := f.Stream().Into().Collect()
	require.NoError(t, err)
	assert.Equal(t, []KeyValue{
		{Key: []byte("a"), Value: 3},
		{Key: []byte("b"), Value: 10},
	}, kvs)
}

func TestFST_NodeWalk(t *testing.T) {
	f := buildFST(t, []KeyValue{
		{Key: []byte("bar"), Value: 1},
		{Key: []byte("baz"), Value: 2},
		{Key: []byte("foo"), Value: 3},
	})

	root, err := f.Root()
	require.NoError(t, err)
	assert.False(t, root.IsFinal())

	var labels []byte
	for _, tr := range root.Transitions() {
		labels = append(labels, tr.Label)
	}
	assert.Equal(t, []byte("bf"), labels)

	i, ok := root.FindTransition('b')
	require.True(t, ok)
	assert.Equal(t, 0, i)

	_, ok = root.FindTransition('c')
	assert.False(t, ok)

	tr := root.Transition(i)
	node, err := f.Node(tr.Addr)
	require.NoError(t, err)
	assert.False(t, node.IsFinal())
	assert.Equal(t, 1, node.NumTransitions())
	assert.Equal(t, byte('a'), node.Transition(0).Label)

	// Walking "baz" and summing outputs yields its value.
	var sum uint64
	n := root
	for _, c := range []byte("baz") {
		j, ok := n.FindTransition(c)
		require.True(t, ok)
		next := n.Transition(j)
		sum += next.Output
		n, err = f.Node(next.Addr)
		require.NoError(t, err)
	}
	assert.True(t, n.IsFinal())
	assert.Equal(t, uint64(2), sum+n.FinalOutput())

	assert.Panics(t, func() { root.Transition(2) })

	_, err = f.Node(0)
	assert.ErrorIs(t, err, ErrCorruptData)
}

func TestFST_GetMisses(t *testing.T) {
	f := buildFST(t, stringKVs("bar", "baz", "foo"))

	for _, key := range []string{"", "b", "ba", "barx", "fo", "zzz"} {
		ok, err := f.Contains([]byte(key))
		require.NoError(t, err)
		assert.False(t, ok, "key %q", key)
	}
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing", func(t *testing.T) {
		_, err := OpenFile(filepath.Join(dir, "missing.fst"))
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.fst")
		require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0xab}, 64), 0o644))

		_, err := OpenFile(path)
		assert.ErrorIs(t, err, ErrCorruptData)
	})

	t.Run("metrics", func(t *testing.T) {
		path := filepath.Join(dir, "keys.fst")
		b, err := CreateFile(path)
		require.NoError(t, err)
		require.NoError(t, b.InsertString("a", 1))
		require.NoError(t, b.Finish())

		mc := &BasicMetricsCollector{}
		f, err := OpenFile(path, WithMetricsCollector(mc), WithAccessPattern(AccessSequential))
		require.NoError(t, err)
		defer func() { require.NoError(t, f.Close()) }()

		assert.Equal(t, int64(1), mc.GetStats().OpenCount)
		assert.Zero(t, mc.GetStats().OpenErrors)
		assert.Greater(t, f.Size(), headerSize+trailerSize)
	})
}
