// Package fst implements finite-state transducers: compact, immutable,
// ordered maps from byte strings to uint64 values.
//
// Keys are inserted once, in strictly increasing order, into a Builder,
// which shares common prefixes and suffixes and streams nodes to its sink
// as soon as they are final. The serialized bytes are then read in place,
// from memory, a memory-mapped file or a blob store.
//
// # Building
//
//	b, _ := fst.NewMemoryBuilder()
//	_ = b.InsertString("bar", 1)
//	_ = b.InsertString("baz", 2)
//	_ = b.InsertString("foo", 3)
//	data, _ := b.Bytes()
//
// Large inputs can be written straight to disk with CreateFile or to any
// io.Writer with NewBuilder.
//
// # Querying
//
//	f, _ := fst.Open(data)
//	v, ok, _ := f.Get([]byte("baz"))
//
// Streams visit keys in order. They accept key bounds and any
// automaton.Automaton: exact keys, prefixes, Levenshtein distance
// (package levenshtein) or regular expressions (package regex).
//
//	lev, _ := levenshtein.New("foo", 1)
//	s := f.Search(lev).Ge([]byte("f")).Into()
//	for s.Next() {
//	    fmt.Println(string(s.Key()), s.Output())
//	}
//
// # Set operations
//
// Streams from any number of FSTs combine with OpBuilder into union,
// intersection, difference and symmetric difference, again in key order.
//
// # Storage
//
// Save and Load persist FSTs through a blobstore.BlobStore (local disk,
// memory, S3, MinIO), optionally inside an LZ4 or ZSTD compressed container.
package fst
