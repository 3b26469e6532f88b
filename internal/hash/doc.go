// Package hash provides the checksum used by the fst file format.
//
// Every serialized transducer carries a CRC32-Castagnoli (CRC32C) checksum of
// its header and node body in the trailer. Go's hash/crc32 uses the SSE4.2 and
// ARM CRC instructions for this polynomial when they are available.
//
// One-shot:
//
//	sum := hash.CRC32C(data)
//
// Incremental:
//
//	crc := hash.UpdateCRC32C(0, chunk1)
//	crc = hash.UpdateCRC32C(crc, chunk2)
package hash
