package fst

import "encoding/binary"

// Serialized layout (little-endian):
//
//	header  (8 bytes):  magic (u32) | version (u32)
//	body:               node records, children before parents
//	trailer (32 bytes): root (u64) | keys (u64) | crc32c (u32) | flags (u32) | version (u32) | magic (u32)
//
// The checksum covers header and body. Node addresses are absolute byte
// offsets, so every address is at least headerSize.
const (
	// Magic identifies a serialized FST ("FST1").
	Magic uint32 = 0x31545346
	// Version is the format version written by this package.
	Version uint32 = 1

	headerSize  = 8
	trailerSize = 32

	flagFinal       = 1 << 0
	flagFinalOutput = 1 << 1
)

func appendHeader(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, Magic)
	return binary.LittleEndian.AppendUint32(dst, Version)
}

type trailer struct {
	root     uint64
	keys     uint64
	checksum uint32
	flags    uint32
	version  uint32
	magic    uint32
}

func (t trailer) append(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, t.root)
	dst = binary.LittleEndian.AppendUint64(dst, t.keys)
	dst = binary.LittleEndian.AppendUint32(dst, t.checksum)
	dst = binary.LittleEndian.AppendUint32(dst, t.flags)
	dst = binary.LittleEndian.AppendUint32(dst, t.version)
	return binary.LittleEndian.AppendUint32(dst, t.magic)
}

func decodeTrailer(b []byte) trailer {
	return trailer{
		root:     binary.LittleEndian.Uint64(b[0:]),
		keys:     binary.LittleEndian.Uint64(b[8:]),
		checksum: binary.LittleEndian.Uint32(b[16:]),
		flags:    binary.LittleEndian.Uint32(b[20:]),
		version:  binary.LittleEndian.Uint32(b[24:]),
		magic:    binary.LittleEndian.Uint32(b[28:]),
	}
}
