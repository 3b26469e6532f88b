package fst

import (
	"bytes"
	"iter"

	"github.com/hupe1980/fst/internal/queue"
)

// Streamer is an ordered stream of keys with values. *Stream and
// *OpStream implement it, so set operations compose.
type Streamer interface {
	// Next advances to the next key. It returns false when the stream is
	// exhausted or failed.
	Next() bool
	// Key returns the current key; it is only valid until the next call
	// to Next.
	Key() []byte
	// Output returns the value of the current key.
	Output() uint64
	// Err returns the error that ended the stream, if any.
	Err() error
}

var (
	_ Streamer = (*Stream)(nil)
	_ Streamer = (*OpStream)(nil)
)

// IndexedValue is the value of a key in the source stream Index.
type IndexedValue struct {
	Index int
	Value uint64
}

type opKind int

const (
	opUnion opKind = iota
	opIntersection
	opDifference
	opSymmetricDifference
)

// OpBuilder collects streams for a set operation. Source indexes follow the
// order in which streams are added.
type OpBuilder struct {
	streams []Streamer
}

// NewOpBuilder returns an empty OpBuilder.
func NewOpBuilder() *OpBuilder {
	return &OpBuilder{}
}

// Add appends streams.
func (b *OpBuilder) Add(streams ...Streamer) *OpBuilder {
	b.streams = append(b.streams, streams...)
	return b
}

// Union yields every key present in at least one stream.
func (b *OpBuilder) Union() *OpStream { return b.build(opUnion) }

// Intersection yields keys present in every stream.
func (b *OpBuilder) Intersection() *OpStream { return b.build(opIntersection) }

// Difference yields keys of the first stream that are in no other stream.
func (b *OpBuilder) Difference() *OpStream { return b.build(opDifference) }

// SymmetricDifference yields keys present in an odd number of streams.
func (b *OpBuilder) SymmetricDifference() *OpStream { return b.build(opSymmetricDifference) }

func (b *OpBuilder) build(kind opKind) *OpStream {
	return &OpStream{
		kind:    kind,
		streams: b.streams,
		heap:    queue.NewKeyHeap(len(b.streams)),
	}
}

// OpStream merges its sources in key order and yields the keys accepted by
// the operation, each once, with the values of every source that had it.
type OpStream struct {
	kind    opKind
	streams []Streamer
	heap    *queue.KeyHeap

	key    []byte
	values []IndexedValue
	err    error

	started bool
	done    bool
}

// advance pulls the next key of source i into the heap.
func (o *OpStream) advance(i int) error {
	s := o.streams[i]
	if s.Next() {
		o.heap.Push(queue.Item{Key: s.Key(), Index: i, Value: s.Output()})
		return nil
	}
	return s.Err()
}

func (o *OpStream) accept() bool {
	switch o.kind {
	case opIntersection:
		return len(o.values) == len(o.streams)
	case opDifference:
		return len(o.values) == 1 && o.values[0].Index == 0
	case opSymmetricDifference:
		return len(o.values)%2 == 1
	default:
		return true
	}
}

func (o *OpStream) fail(err error) bool {
	o.err = err
	o.done = true
	o.heap.Reset()
	return false
}

// Next advances to the next accepted key.
func (o *OpStream) Next() bool {
	if o.done {
		return false
	}
	if !o.started {
		o.started = true
		for i := range o.streams {
			if err := o.advance(i); err != nil {
				return o.fail(err)
			}
		}
	}

	for {
		top, ok := o.heap.Peek()
		if !ok {
			o.done = true
			o.values = o.values[:0]
			return false
		}

		// Sources reuse their key buffers, so copy before advancing them.
		o.key = append(o.key[:0], top.Key...)
		o.values = o.values[:0]
		for {
			it, ok := o.heap.Peek()
			if !ok || !bytes.Equal(it.Key, o.key) {
				break
			}
			o.heap.Pop()
			o.values = append(o.values, IndexedValue{Index: it.Index, Value: it.Value})
		}

		for _, v := range o.values {
			if err := o.advance(v.Index); err != nil {
				return o.fail(err)
			}
		}

		if o.accept() {
			return true
		}
	}
}

// Key returns the current key. The slice is reused by Next.
func (o *OpStream) Key() []byte {
	return o.key
}

// Values returns the values of the current key, one per source that has
// it, in ascending source order. The slice is reused by Next.
func (o *OpStream) Values() []IndexedValue {
	return o.values
}

// Output returns the value from the lowest-indexed source that has the
// current key.
func (o *OpStream) Output() uint64 {
	if len(o.values) == 0 {
		return 0
	}
	return o.values[0].Value
}

// Err returns the first error reported by a source.
func (o *OpStream) Err() error {
	return o.err
}

// All returns an iterator over the remaining keys and their per-source
// values. Both are only valid during the yield.
func (o *OpStream) All() iter.Seq2[[]byte, []IndexedValue] {
	return func(yield func([]byte, []IndexedValue) bool) {
		for o.Next() {
			if !yield(o.key, o.values) {
				return
			}
		}
	}
}

// Keys collects the remaining keys.
func (o *OpStream) Keys() ([][]byte, error) {
	return collectKeys(o)
}

// Strings collects the remaining keys as strings. A key that is not valid
// UTF-8 fails with *UTF8Error.
func (o *OpStream) Strings() ([]string, error) {
	return collectStrings(o)
}
