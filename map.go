package fst

import (
	"fmt"

	"github.com/hupe1980/fst/automaton"
)

// Map is an FST used as an ordered map from byte strings to uint64.
type Map struct {
	f *FST
}

// NewMap builds an in-memory map from entries with strictly increasing keys.
func NewMap(entries []KeyValue, opts ...Option) (*Map, error) {
	b, err := NewMemoryBuilder(opts...)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := b.Insert(e.Key, e.Value); err != nil {
			return nil, err
		}
	}
	f, err := finishMemory(b, opts)
	if err != nil {
		return nil, err
	}
	return &Map{f: f}, nil
}

// NewMapFromStrings builds a map from parallel key and value slices. Keys
// must be strictly increasing.
func NewMapFromStrings(keys []string, values []uint64, opts ...Option) (*Map, error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("fst: %d keys but %d values", len(keys), len(values))
	}
	entries := make([]KeyValue, len(keys))
	for i, k := range keys {
		entries[i] = KeyValue{Key: []byte(k), Value: values[i]}
	}
	return NewMap(entries, opts...)
}

// NewMapFromFST wraps an opened FST.
func NewMapFromFST(f *FST) *Map {
	return &Map{f: f}
}

// Get returns the value of key.
func (m *Map) Get(key []byte) (uint64, bool, error) {
	return m.f.Get(key)
}

// GetString is Get for string keys.
func (m *Map) GetString(key string) (uint64, bool, error) {
	return m.f.Get([]byte(key))
}

// ContainsKey reports whether key is in the map.
func (m *Map) ContainsKey(key []byte) (bool, error) {
	return m.f.Contains(key)
}

// Len returns the number of entries.
func (m *Map) Len() int { return m.f.Len() }

// Stream returns a builder for a stream over all entries.
func (m *Map) Stream() *StreamBuilder { return m.f.Stream() }

// Range returns a builder for a bounded stream.
func (m *Map) Range() *StreamBuilder { return m.f.Range() }

// Search returns a builder for a stream over entries whose keys match a.
func (m *Map) Search(a automaton.Automaton) *StreamBuilder { return m.f.Search(a) }

// Op returns an OpBuilder whose first source is the full map.
func (m *Map) Op() *OpBuilder { return NewOpBuilder().Add(m.f.Stream().Into()) }

// FST returns the underlying transducer.
func (m *Map) FST() *FST { return m.f }
