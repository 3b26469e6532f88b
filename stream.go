package fst

import (
	"bytes"
	"iter"
	"time"
	"unicode/utf8"

	"github.com/hupe1980/fst/automaton"
)

// StreamBuilder configures a stream over an FST: an automaton the keys must
// match and optional key bounds.
type StreamBuilder struct {
	f   *FST
	aut automaton.Automaton
	rng *automaton.Range
}

// Stream returns a builder for a stream over all keys.
func (f *FST) Stream() *StreamBuilder {
	return f.Search(automaton.AlwaysMatch{})
}

// Range is Stream; it reads better when bounds follow.
func (f *FST) Range() *StreamBuilder {
	return f.Stream()
}

// Search returns a builder for a stream over the keys matched by a.
func (f *FST) Search(a automaton.Automaton) *StreamBuilder {
	return &StreamBuilder{f: f, aut: a, rng: automaton.NewRange()}
}

// Ge restricts the stream to keys >= key.
func (sb *StreamBuilder) Ge(key []byte) *StreamBuilder { sb.rng.Ge(key); return sb }

// Gt restricts the stream to keys > key.
func (sb *StreamBuilder) Gt(key []byte) *StreamBuilder { sb.rng.Gt(key); return sb }

// Le restricts the stream to keys <= key.
func (sb *StreamBuilder) Le(key []byte) *StreamBuilder { sb.rng.Le(key); return sb }

// Lt restricts the stream to keys < key.
func (sb *StreamBuilder) Lt(key []byte) *StreamBuilder { sb.rng.Lt(key); return sb }

// Into creates the stream. Later bound changes on sb do not affect it.
func (sb *StreamBuilder) Into() *Stream {
	return &Stream{f: sb.f, aut: sb.aut, rng: sb.rng.Clone()}
}

// KeyValue is a key with its value.
type KeyValue struct {
	Key   []byte
	Value uint64
}

// frame is one level of the depth-first traversal.
type frame struct {
	node   Node
	next   int
	end    int
	aState int
	rState int
	out    uint64
}

// Stream yields matching keys in ascending order. It is a cursor:
//
//	s := f.Search(a).Into()
//	for s.Next() {
//	    fmt.Println(string(s.Key()), s.Output())
//	}
//	if err := s.Err(); err != nil { ... }
//
// Abandoning a stream early is safe. A Stream is not safe for concurrent use.
type Stream struct {
	f   *FST
	aut automaton.Automaton
	rng *automaton.Range

	stack []frame
	key   []byte
	out   uint64
	err   error

	started bool
	done    bool
	results int
	begin   time.Time
}

// newFrame bounds the transitions of n to the byte window the range allows.
func (s *Stream) newFrame(n Node, aState, rState int, out uint64) frame {
	fr := frame{node: n, aState: aState, rState: rState, out: out}
	hi, ok := s.rng.MaxByte(rState)
	if !ok {
		return fr
	}
	fr.next = n.lowerBound(s.rng.MinByte(rState))
	if i, found := n.FindTransition(hi); found {
		fr.end = i + 1
	} else {
		fr.end = i
	}
	return fr
}

func (s *Stream) matches(n Node, aState, rState int) bool {
	return n.final && s.aut.IsMatch(aState) && s.rng.IsMatch(rState)
}

func (s *Stream) init() bool {
	s.started = true
	s.begin = time.Now()

	if s.rng.Empty() {
		return s.finish(nil)
	}
	root, err := s.f.Root()
	if err != nil {
		return s.finish(err)
	}
	aState, rState := s.aut.Start(), s.rng.Start()
	if !s.aut.CanMatch(aState) || !s.rng.CanMatch(rState) {
		return s.finish(nil)
	}

	s.stack = append(s.stack, s.newFrame(root, aState, rState, 0))
	if s.matches(root, aState, rState) {
		s.out = root.finalOut
		s.results++
		return true
	}
	return false
}

// Next advances to the next matching key.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}
	if !s.started {
		if s.init() {
			return true
		}
		if s.done {
			return false
		}
	}

	for len(s.stack) > 0 {
		depth := len(s.stack) - 1
		top := &s.stack[depth]
		if top.next >= top.end {
			s.stack = s.stack[:depth]
			continue
		}

		i := top.next
		top.next++

		label := top.node.body[top.node.labels+i]
		rState, ok := s.rng.Accept(top.rState, label)
		if !ok || !s.rng.CanMatch(rState) {
			continue
		}
		aState, ok := s.aut.Accept(top.aState, label)
		if !ok || !s.aut.CanMatch(aState) {
			continue
		}

		child, err := decodeNode(s.f.body, top.node.target(i))
		if err != nil {
			return s.finish(err)
		}
		out := top.out + top.node.output(i)

		s.key = append(s.key[:depth], label)
		s.stack = append(s.stack, s.newFrame(child, aState, rState, out))

		if s.matches(child, aState, rState) {
			s.out = out + child.finalOut
			s.results++
			return true
		}
	}
	return s.finish(nil)
}

func (s *Stream) finish(err error) bool {
	s.done = true
	s.err = err
	s.stack = nil
	s.key = s.key[:0]
	o := s.f.opts
	d := time.Since(s.begin)
	o.metricsCollector.RecordSearch(s.results, d, err)
	o.logger.LogSearch(o.ctx, s.results, d, err)
	return false
}

// Key returns the current key. The slice is reused by Next; copy it to
// keep it.
func (s *Stream) Key() []byte {
	if len(s.stack) == 0 {
		return nil
	}
	return s.key[:len(s.stack)-1]
}

// Output returns the value of the current key.
func (s *Stream) Output() uint64 {
	return s.out
}

// Err returns the error that ended the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// All returns an iterator over the remaining keys. Keys are only valid
// during the yield. Check Err after the loop.
func (s *Stream) All() iter.Seq2[[]byte, uint64] {
	return all(s)
}

// Keys collects the remaining keys.
func (s *Stream) Keys() ([][]byte, error) {
	return collectKeys(s)
}

// Strings collects the remaining keys as strings. A key that is not valid
// UTF-8 fails with *UTF8Error.
func (s *Stream) Strings() ([]string, error) {
	return collectStrings(s)
}

// Collect gathers the remaining keys with their values.
func (s *Stream) Collect() ([]KeyValue, error) {
	var kvs []KeyValue
	for s.Next() {
		kvs = append(kvs, KeyValue{Key: bytes.Clone(s.Key()), Value: s.Output()})
	}
	return kvs, s.Err()
}

func all(s Streamer) iter.Seq2[[]byte, uint64] {
	return func(yield func([]byte, uint64) bool) {
		for s.Next() {
			if !yield(s.Key(), s.Output()) {
				return
			}
		}
	}
}

func collectKeys(s Streamer) ([][]byte, error) {
	var keys [][]byte
	for s.Next() {
		keys = append(keys, bytes.Clone(s.Key()))
	}
	return keys, s.Err()
}

func collectStrings(s Streamer) ([]string, error) {
	var out []string
	for s.Next() {
		k := s.Key()
		if !utf8.Valid(k) {
			return out, &UTF8Error{Key: bytes.Clone(k)}
		}
		out = append(out, string(k))
	}
	return out, s.Err()
}
