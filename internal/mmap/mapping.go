package mmap

import (
	"errors"
	"io"
	"os"
	"sync/atomic"
)

var (
	// ErrClosed is returned by reads on a closed Mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for files too large to address.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrInvalidOffset is returned for negative read offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)

// Advice is the madvise hint applied to a mapping.
type Advice uint8

const (
	AdviceNormal Advice = iota
	// AdviceSequential suits full scans.
	AdviceSequential
	// AdviceRandom suits point lookups.
	AdviceRandom
	// AdviceWillNeed prefetches the whole file.
	AdviceWillNeed
)

// Mapping is a read-only view of a file.
type Mapping struct {
	data   []byte
	closed atomic.Bool
	unmap  func([]byte) error
}

// Open maps the file at path and applies advice. An empty file yields an
// empty mapping.
func Open(path string, advice Advice) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if int64(int(size)) != size {
		return nil, ErrInvalidSize
	}
	if size == 0 {
		return &Mapping{}, nil
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		return nil, err
	}
	m := &Mapping{data: data, unmap: unmap}
	if err := m.Advise(advice); err != nil {
		_ = m.Close()
		return nil, err
	}
	return m, nil
}

// Close unmaps the file. Repeated calls return nil.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) || m.data == nil {
		return nil
	}
	return m.unmap(m.data)
}

// Bytes returns the mapped file, or nil once closed.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

func (m *Mapping) Size() int {
	return len(m.data)
}

// Advise replaces the hint given at Open.
func (m *Mapping) Advise(advice Advice) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if len(m.data) == 0 {
		return nil
	}
	return osAdvise(m.data, advice)
}

// ReadAt implements io.ReaderAt over the mapped bytes.
func (m *Mapping) ReadAt(p []byte, off int64) (int, error) {
	switch {
	case m.closed.Load():
		return 0, ErrClosed
	case off < 0:
		return 0, ErrInvalidOffset
	case off >= int64(len(m.data)):
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
