// Package mmap provides read-only memory-mapped file access.
//
// A serialized transducer is immutable once written, so the reader can map the
// file and decode nodes straight out of the page cache without copying:
//
//	m, err := mmap.Open("keys.fst", mmap.AdviceRandom)
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// Unix maps with mmap(2) and honors the madvise(2) hint; Windows uses
// MapViewOfFile and ignores it. Concurrent readers are fine. Nothing may use
// Bytes after Close, and the file must stay unchanged while mapped.
package mmap
