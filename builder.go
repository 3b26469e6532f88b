package fst

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/hupe1980/fst/internal/cache"
	"github.com/hupe1980/fst/internal/fs"
	"github.com/hupe1980/fst/internal/hash"
	"github.com/hupe1980/fst/internal/resource"
)

// registryEntryOverhead approximates the per-entry bookkeeping of the
// registry (map slot, list element, address).
const registryEntryOverhead = 96

// BuildStats describes the work done by a Builder.
type BuildStats struct {
	Keys           uint64
	NodesWritten   uint64
	RegistryHits   uint64
	RegistryMisses uint64
	BytesWritten   int64
}

type builderState int

const (
	stateBuilding builderState = iota
	stateFinished
	stateFailed
)

// Builder constructs an FST from keys inserted in strictly increasing
// lexicographic order. Nodes are written to the sink as soon as no later
// key can change them, so memory use is bounded by the longest key plus
// the registry.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	opts options

	sink  *countingWriter
	buf   *bufio.Writer
	mem   *bytes.Buffer
	file  fs.File
	inner io.Writer

	unfinished []unfinishedNode
	registry   *cache.LRU[string, uint64]
	scratch    []byte

	last    []byte
	hasLast bool
	state   builderState
	stats   BuildStats
	started time.Time
}

// unfinishedNode is a node on the path of the last inserted key. Its last
// transition has no target address yet.
type unfinishedNode struct {
	node      builderNode
	hasLast   bool
	lastLabel byte
	lastOut   uint64
}

// addOutputPrefix pushes an output that moved off the parent edge down to
// every way out of this node.
func (u *unfinishedNode) addOutputPrefix(prefix uint64) {
	if u.node.final {
		u.node.finalOut += prefix
	}
	for i := range u.node.trans {
		u.node.trans[i].out += prefix
	}
	if u.hasLast {
		u.lastOut += prefix
	}
}

// countingWriter tracks the write offset (the next node address) and the
// running checksum of everything written.
type countingWriter struct {
	w   io.Writer
	n   int64
	crc uint32
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.crc = hash.UpdateCRC32C(c.crc, p[:n])
	c.n += int64(n)
	return n, err
}

// NewBuilder returns a Builder that streams the FST to w. If w implements
// Flush or Sync they are called by Finish.
func NewBuilder(w io.Writer, opts ...Option) (*Builder, error) {
	return newBuilder(w, applyOptions(opts))
}

// NewMemoryBuilder returns a Builder that writes to an in-memory buffer.
// Use Bytes to finish it and obtain the FST.
func NewMemoryBuilder(opts ...Option) (*Builder, error) {
	mem := new(bytes.Buffer)
	b, err := newBuilder(mem, applyOptions(opts))
	if err != nil {
		return nil, err
	}
	b.mem = mem
	return b, nil
}

// CreateFile returns a Builder that writes to the file at path. The file is
// truncated, synced and closed by Finish.
func CreateFile(path string, opts ...Option) (*Builder, error) {
	o := applyOptions(opts)
	f, err := fs.Create(o.fs, path)
	if err != nil {
		return nil, &SinkError{Op: "create", cause: err}
	}
	b, err := newBuilder(f, o)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	b.file = f
	return b, nil
}

func newBuilder(w io.Writer, o options) (*Builder, error) {
	var rc *resource.Controller
	if o.memoryLimit > 0 || o.ioLimit > 0 {
		rc = resource.NewController(resource.Config{
			MemoryLimitBytes:   o.memoryLimit,
			IOLimitBytesPerSec: o.ioLimit,
		})
	}

	inner := w
	if o.ioLimit > 0 {
		inner = resource.NewRateLimitedWriter(o.ctx, w, rc)
	}

	b := &Builder{
		opts:       o,
		inner:      w,
		unfinished: []unfinishedNode{{}},
		started:    time.Now(),
	}
	b.buf = bufio.NewWriterSize(inner, 64<<10)
	b.sink = &countingWriter{w: b.buf}

	if o.registrySize > 0 {
		b.registry = cache.NewLRU(cache.Config[string, uint64]{
			MaxEntries: o.registrySize,
			Cost: func(k string, _ uint64) int64 {
				return int64(len(k)) + registryEntryOverhead
			},
			Resource: rc,
		})
	}

	if _, err := b.sink.Write(appendHeader(nil)); err != nil {
		return nil, &SinkError{Op: "write", cause: err}
	}
	return b, nil
}

// Insert adds key with value out. Keys must be strictly increasing; a key
// equal to or smaller than the previous one fails with *OutOfOrderError and
// the builder accepts no further keys.
func (b *Builder) Insert(key []byte, out uint64) error {
	start := time.Now()
	err := b.insert(key, out)
	b.opts.metricsCollector.RecordInsert(time.Since(start), err)
	return err
}

// InsertString is Insert for string keys.
func (b *Builder) InsertString(key string, out uint64) error {
	return b.Insert([]byte(key), out)
}

func (b *Builder) insert(key []byte, out uint64) error {
	if b.state != stateBuilding {
		return ErrBuilderClosed
	}

	if b.hasLast {
		if c := bytes.Compare(key, b.last); c <= 0 {
			b.fail()
			return &OutOfOrderError{
				Previous:  bytes.Clone(b.last),
				Key:       bytes.Clone(key),
				Duplicate: c == 0,
			}
		}
	}

	if len(key) == 0 {
		// Only reachable for the first key.
		b.unfinished[0].node.final = true
		b.unfinished[0].node.finalOut = out
	} else {
		prefixLen, rest := b.findCommonPrefixAndSetOutput(key, out)
		if err := b.compileFrom(prefixLen); err != nil {
			return b.sinkFailure(err)
		}
		b.addSuffix(key[prefixLen:], rest)
	}

	b.last = append(b.last[:0], key...)
	b.hasLast = true
	b.stats.Keys++
	return nil
}

// findCommonPrefixAndSetOutput walks the shared prefix with the previous
// key. Each shared edge keeps min(edge output, remaining output); the
// difference moves down one level.
func (b *Builder) findCommonPrefixAndSetOutput(key []byte, out uint64) (int, uint64) {
	i := 0
	for ; i < len(key); i++ {
		u := &b.unfinished[i]
		if !u.hasLast || u.lastLabel != key[i] {
			break
		}
		common := min(u.lastOut, out)
		if moved := u.lastOut - common; moved > 0 {
			b.unfinished[i+1].addOutputPrefix(moved)
		}
		u.lastOut = common
		out -= common
	}
	return i, out
}

// compileFrom freezes every unfinished node deeper than depth.
func (b *Builder) compileFrom(depth int) error {
	var addr uint64
	compiled := false
	for depth+1 < len(b.unfinished) {
		top := &b.unfinished[len(b.unfinished)-1]
		if compiled {
			top.node.trans = append(top.node.trans, builderTransition{
				label: top.lastLabel,
				out:   top.lastOut,
				addr:  addr,
			})
			top.hasLast = false
		}
		a, err := b.compile(&top.node)
		if err != nil {
			return err
		}
		addr, compiled = a, true
		b.unfinished = b.unfinished[:len(b.unfinished)-1]
	}

	if compiled {
		top := &b.unfinished[len(b.unfinished)-1]
		if top.hasLast {
			top.node.trans = append(top.node.trans, builderTransition{
				label: top.lastLabel,
				out:   top.lastOut,
				addr:  addr,
			})
			top.hasLast = false
		}
	}
	return nil
}

// addSuffix pushes one unfinished node per remaining byte plus a final node.
func (b *Builder) addSuffix(suffix []byte, out uint64) {
	if len(suffix) == 0 {
		return
	}
	top := &b.unfinished[len(b.unfinished)-1]
	top.hasLast = true
	top.lastLabel = suffix[0]
	top.lastOut = out

	for _, c := range suffix[1:] {
		b.push(unfinishedNode{hasLast: true, lastLabel: c})
	}
	b.push(unfinishedNode{node: builderNode{final: true}})
}

// push reuses the transition slices of popped nodes.
func (b *Builder) push(u unfinishedNode) {
	if n := len(b.unfinished); n < cap(b.unfinished) {
		b.unfinished = b.unfinished[:n+1]
		slot := &b.unfinished[n]
		trans := slot.node.trans[:0]
		*slot = u
		slot.node.trans = append(trans, u.node.trans...)
		return
	}
	b.unfinished = append(b.unfinished, u)
}

// compile writes n unless an identical node is already in the registry and
// returns its address.
func (b *Builder) compile(n *builderNode) (uint64, error) {
	b.scratch = appendNode(b.scratch[:0], n)

	if b.registry != nil {
		if addr, ok := b.registry.Get(string(b.scratch)); ok {
			b.stats.RegistryHits++
			return addr, nil
		}
		b.stats.RegistryMisses++
	}

	addr := uint64(b.sink.n)
	if _, err := b.sink.Write(b.scratch); err != nil {
		return 0, err
	}
	b.stats.NodesWritten++

	if b.registry != nil {
		b.registry.Add(string(b.scratch), addr)
	}
	return addr, nil
}

// Finish writes the remaining nodes, the root and the trailer, then
// flushes the sink. The builder is closed afterwards.
func (b *Builder) Finish() error {
	if b.state != stateBuilding {
		return ErrBuilderClosed
	}

	if err := b.compileFrom(0); err != nil {
		return b.sinkFailure(err)
	}
	root, err := b.compile(&b.unfinished[0].node)
	if err != nil {
		return b.sinkFailure(err)
	}

	t := trailer{
		root:     root,
		keys:     b.stats.Keys,
		checksum: b.sink.crc,
		version:  Version,
		magic:    Magic,
	}
	if _, err := b.sink.Write(t.append(nil)); err != nil {
		return b.sinkFailure(err)
	}
	if err := b.buf.Flush(); err != nil {
		return b.sinkFailure(err)
	}
	if err := b.finishSink(); err != nil {
		return err
	}

	b.state = stateFinished
	b.stats.BytesWritten = b.sink.n
	b.release()
	b.report(nil)
	return nil
}

func (b *Builder) finishSink() error {
	type flusher interface{ Flush() error }
	type syncer interface{ Sync() error }

	if f, ok := b.inner.(flusher); ok {
		if err := f.Flush(); err != nil {
			return b.sinkFailure(&SinkError{Op: "flush", cause: err})
		}
	}
	if s, ok := b.inner.(syncer); ok {
		if err := s.Sync(); err != nil {
			return b.sinkFailure(&SinkError{Op: "sync", cause: err})
		}
	}
	if b.file != nil {
		f := b.file
		b.file = nil
		if err := f.Close(); err != nil {
			return b.sinkFailure(&SinkError{Op: "close", cause: err})
		}
	}
	return nil
}

// Bytes finishes a memory builder and returns the serialized FST. Calling
// it again after a successful finish returns the same bytes.
func (b *Builder) Bytes() ([]byte, error) {
	if b.mem == nil {
		return nil, ErrNotMemoryBuilder
	}
	switch b.state {
	case stateBuilding:
		if err := b.Finish(); err != nil {
			return nil, err
		}
	case stateFailed:
		return nil, ErrBuilderClosed
	}
	return b.mem.Bytes(), nil
}

// Len returns the number of keys inserted so far.
func (b *Builder) Len() uint64 {
	return b.stats.Keys
}

// LastKey returns a copy of the last inserted key, or nil.
func (b *Builder) LastKey() []byte {
	if !b.hasLast {
		return nil
	}
	return bytes.Clone(b.last)
}

// Stats returns build statistics.
func (b *Builder) Stats() BuildStats {
	s := b.stats
	s.BytesWritten = b.sink.n
	return s
}

func (b *Builder) fail() {
	b.state = stateFailed
	b.release()
	if b.file != nil {
		_ = b.file.Close()
		b.file = nil
	}
}

func (b *Builder) sinkFailure(err error) error {
	var se *SinkError
	if !errors.As(err, &se) {
		se = &SinkError{Op: "write", cause: err}
	}
	b.fail()
	b.report(se)
	return se
}

// release returns registry memory to the resource controller.
func (b *Builder) release() {
	if b.registry != nil {
		b.registry.Purge()
	}
	b.unfinished = nil
}

func (b *Builder) report(err error) {
	d := time.Since(b.started)
	b.opts.metricsCollector.RecordBuild(b.stats.Keys, b.sink.n, d, err)
	b.opts.logger.LogBuild(b.opts.ctx, b.Stats(), d, err)
}
