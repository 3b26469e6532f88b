package fst

import (
	"encoding/binary"
	"time"

	"github.com/hupe1980/fst/internal/hash"
	"github.com/hupe1980/fst/internal/mmap"
)

// FST is an immutable, serialized finite-state transducer mapping byte keys
// to uint64 values. It is safe for concurrent use by any number of
// goroutines; every stream owns its own traversal state.
type FST struct {
	data    []byte
	body    []byte
	root    uint64
	keys    uint64
	version uint32
	opts    options

	mapping *mmap.Mapping
	closer  func() error
}

// Open validates data and returns an FST reading directly from it.
// data must not be modified while the FST is in use.
func Open(data []byte, opts ...Option) (*FST, error) {
	return open(data, applyOptions(opts))
}

func open(data []byte, o options) (*FST, error) {
	start := time.Now()
	f, err := validate(data, o)
	o.metricsCollector.RecordOpen(len(data), time.Since(start), err)
	var keys uint64
	if f != nil {
		keys = f.keys
	}
	o.logger.LogOpen(o.ctx, len(data), keys, err)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func validate(data []byte, o options) (*FST, error) {
	if len(data) < headerSize+trailerSize {
		return nil, corrupt("size %d below minimum %d", len(data), headerSize+trailerSize)
	}

	t := decodeTrailer(data[len(data)-trailerSize:])
	if t.magic != Magic {
		return nil, corrupt("bad trailer magic %#x", t.magic)
	}
	if t.version != Version {
		return nil, &VersionMismatchError{Expected: Version, Actual: t.version}
	}

	if m := binary.LittleEndian.Uint32(data[0:]); m != Magic {
		return nil, corrupt("bad header magic %#x", m)
	}
	if v := binary.LittleEndian.Uint32(data[4:]); v != Version {
		return nil, &VersionMismatchError{Expected: Version, Actual: v}
	}

	body := data[:len(data)-trailerSize]
	if t.root < headerSize || t.root >= uint64(len(body)) {
		return nil, corrupt("root address %d out of range", t.root)
	}

	if o.verifyChecksum {
		if sum := hash.CRC32C(body); sum != t.checksum {
			return nil, corrupt("checksum mismatch: stored %#x, computed %#x", t.checksum, sum)
		}
	}

	if _, err := decodeNode(body, t.root); err != nil {
		return nil, err
	}

	return &FST{
		data:    data,
		body:    body,
		root:    t.root,
		keys:    t.keys,
		version: t.version,
		opts:    o,
	}, nil
}

// OpenFile memory-maps the file at path read-only and opens it. The file
// must not be modified while mapped. Close releases the mapping.
func OpenFile(path string, opts ...Option) (*FST, error) {
	o := applyOptions(opts)
	m, err := mmap.Open(path, o.accessPattern.advice())
	if err != nil {
		return nil, err
	}
	f, err := open(m.Bytes(), o)
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	f.mapping = m
	return f, nil
}

// Close releases the backing mapping or blob, if any. Using the FST or any
// Node or stream derived from it after Close is undefined.
func (f *FST) Close() error {
	var err error
	if f.mapping != nil {
		err = f.mapping.Close()
		f.mapping = nil
	}
	if f.closer != nil {
		if cerr := f.closer(); err == nil {
			err = cerr
		}
		f.closer = nil
	}
	return err
}

// Root returns the root node.
func (f *FST) Root() (Node, error) {
	return decodeNode(f.body, f.root)
}

// Node returns the node at addr.
func (f *FST) Node(addr uint64) (Node, error) {
	return decodeNode(f.body, addr)
}

// Get returns the value of key. A missing key is reported with ok=false;
// errors only signal corrupt data.
func (f *FST) Get(key []byte) (uint64, bool, error) {
	n, err := f.Root()
	if err != nil {
		return 0, false, err
	}
	var out uint64
	for _, c := range key {
		i, ok := n.FindTransition(c)
		if !ok {
			return 0, false, nil
		}
		out += n.output(i)
		if n, err = decodeNode(f.body, n.target(i)); err != nil {
			return 0, false, err
		}
	}
	if !n.final {
		return 0, false, nil
	}
	return out + n.finalOut, true, nil
}

// Contains reports whether key is in the FST.
func (f *FST) Contains(key []byte) (bool, error) {
	_, ok, err := f.Get(key)
	return ok, err
}

// Len returns the number of keys.
func (f *FST) Len() int {
	return int(f.keys)
}

// Size returns the serialized size in bytes.
func (f *FST) Size() int {
	return len(f.data)
}

// Version returns the format version of the serialized data.
func (f *FST) Version() uint32 {
	return f.version
}

// Bytes returns the serialized FST. The slice must not be modified and,
// for mapped FSTs, is only valid until Close.
func (f *FST) Bytes() []byte {
	return f.data
}
