package fst

import (
	"github.com/hupe1980/fst/automaton"
)

// Set is an FST used as an ordered set of byte strings; every value is 0.
type Set struct {
	f *FST
}

// NewSet builds an in-memory set from keys in strictly increasing order.
func NewSet(keys [][]byte, opts ...Option) (*Set, error) {
	b, err := NewMemoryBuilder(opts...)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		if err := b.Insert(k, 0); err != nil {
			return nil, err
		}
	}
	f, err := finishMemory(b, opts)
	if err != nil {
		return nil, err
	}
	return &Set{f: f}, nil
}

// NewSetFromStrings is NewSet for string keys.
func NewSetFromStrings(keys []string, opts ...Option) (*Set, error) {
	bs := make([][]byte, len(keys))
	for i, k := range keys {
		bs[i] = []byte(k)
	}
	return NewSet(bs, opts...)
}

// NewSetFromFST wraps an opened FST.
func NewSetFromFST(f *FST) *Set {
	return &Set{f: f}
}

func finishMemory(b *Builder, opts []Option) (*FST, error) {
	data, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	// The builder just computed the checksum.
	return Open(data, append(opts[:len(opts):len(opts)], WithVerifyChecksum(false))...)
}

// Contains reports whether key is in the set.
func (s *Set) Contains(key []byte) (bool, error) {
	return s.f.Contains(key)
}

// ContainsString is Contains for string keys.
func (s *Set) ContainsString(key string) (bool, error) {
	return s.f.Contains([]byte(key))
}

// Len returns the number of keys.
func (s *Set) Len() int { return s.f.Len() }

// Stream returns a builder for a stream over all keys.
func (s *Set) Stream() *StreamBuilder { return s.f.Stream() }

// Range returns a builder for a bounded stream.
func (s *Set) Range() *StreamBuilder { return s.f.Range() }

// Search returns a builder for a stream over keys matched by a.
func (s *Set) Search(a automaton.Automaton) *StreamBuilder { return s.f.Search(a) }

// Op returns an OpBuilder whose first source is the full set.
func (s *Set) Op() *OpBuilder { return NewOpBuilder().Add(s.f.Stream().Into()) }

// FST returns the underlying transducer.
func (s *Set) FST() *FST { return s.f }
