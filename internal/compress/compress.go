// Package compress wraps serialized transducers in a block-compressed
// container for cold storage.
//
// Container layout (little-endian):
//
//	magic "FSTZ" (u32) | codec (u8) | reserved (3 bytes) | raw size (u64)
//	blocks: raw size (u32) | stored size (u32, 0 = stored raw) | payload
//
// Blocks are compressed independently with LZ4 or ZSTD. A block that does
// not shrink below 90% of its raw size is stored uncompressed.
package compress

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec selects the block compression algorithm.
type Codec uint8

const (
	// None stores blocks uncompressed.
	None Codec = 0
	// LZ4 favors decode speed.
	LZ4 Codec = 1
	// ZSTD favors ratio.
	ZSTD Codec = 2
)

func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

const (
	// Magic identifies a container ("FSTZ").
	Magic uint32 = 0x5A545346

	headerSize      = 16
	blockHeaderSize = 8

	// DefaultBlockSize is the raw size of each compressed block.
	DefaultBlockSize = 256 * 1024
)

// ErrCorrupt is returned when a container cannot be decoded.
var ErrCorrupt = errors.New("compress: corrupt container")

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// IsContainer reports whether data starts with the container magic.
func IsContainer(data []byte) bool {
	return len(data) >= headerSize && binary.LittleEndian.Uint32(data) == Magic
}

// Encode compresses data into a container.
func Encode(data []byte, codec Codec, blockSize int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, codec, int64(len(data)), blockSize)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode returns the raw bytes held by a container.
func Decode(data []byte) ([]byte, error) {
	if !IsContainer(data) {
		return nil, fmt.Errorf("%w: missing magic", ErrCorrupt)
	}

	codec := Codec(data[4])
	rawSize := binary.LittleEndian.Uint64(data[8:])

	// rawSize is untrusted until the blocks add up; cap the preallocation.
	out := make([]byte, 0, min(rawSize, uint64(len(data))*16))
	off := headerSize

	for off < len(data) {
		if off+blockHeaderSize > len(data) {
			return nil, fmt.Errorf("%w: truncated block header at %d", ErrCorrupt, off)
		}
		raw := int(binary.LittleEndian.Uint32(data[off:]))
		stored := int(binary.LittleEndian.Uint32(data[off+4:]))
		off += blockHeaderSize

		if stored == 0 {
			if off+raw > len(data) {
				return nil, fmt.Errorf("%w: truncated block at %d", ErrCorrupt, off)
			}
			out = append(out, data[off:off+raw]...)
			off += raw
			continue
		}

		if off+stored > len(data) {
			return nil, fmt.Errorf("%w: truncated block at %d", ErrCorrupt, off)
		}
		block, err := decompressBlock(codec, data[off:off+stored], raw)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
		off += stored
	}

	if uint64(len(out)) != rawSize {
		return nil, fmt.Errorf("%w: size mismatch: got %d, want %d", ErrCorrupt, len(out), rawSize)
	}

	return out, nil
}

func decompressBlock(codec Codec, payload []byte, raw int) ([]byte, error) {
	result := make([]byte, raw)

	switch codec {
	case LZ4:
		n, err := lz4.UncompressBlock(payload, result)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if n != raw {
			return nil, fmt.Errorf("%w: lz4 block size mismatch", ErrCorrupt)
		}
		return result, nil

	case ZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		decoded, err := dec.DecodeAll(payload, result[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if len(decoded) != raw {
			return nil, fmt.Errorf("%w: zstd block size mismatch", ErrCorrupt)
		}
		return decoded, nil

	default:
		return nil, fmt.Errorf("%w: unknown codec %s", ErrCorrupt, codec)
	}
}

// Writer buffers raw bytes and emits compressed blocks.
type Writer struct {
	w         io.Writer
	codec     Codec
	blockSize int
	buf       []byte
	written   int64
	closed    bool
}

// NewWriter writes the container header for rawSize bytes and returns a
// writer for the payload. Exactly rawSize bytes must be written before Close.
func NewWriter(w io.Writer, codec Codec, rawSize int64, blockSize int) (*Writer, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if codec > ZSTD {
		return nil, fmt.Errorf("compress: unknown codec %s", codec)
	}

	var hdr [headerSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], Magic)
	hdr[4] = byte(codec)
	binary.LittleEndian.PutUint64(hdr[8:], uint64(rawSize))

	n, err := w.Write(hdr[:])
	if err != nil {
		return nil, err
	}

	return &Writer{
		w:         w,
		codec:     codec,
		blockSize: blockSize,
		buf:       make([]byte, 0, blockSize),
		written:   int64(n),
	}, nil
}

// Write buffers p, flushing full blocks.
func (cw *Writer) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		space := cw.blockSize - len(cw.buf)
		if space == 0 {
			if err := cw.flush(); err != nil {
				return total, err
			}
			space = cw.blockSize
		}

		n := min(space, len(p))
		cw.buf = append(cw.buf, p[:n]...)
		total += n
		p = p[n:]
	}
	return total, nil
}

// Close flushes the final block. It does not close the underlying writer.
func (cw *Writer) Close() error {
	if cw.closed {
		return nil
	}
	cw.closed = true
	return cw.flush()
}

// BytesWritten returns the container bytes written so far.
func (cw *Writer) BytesWritten() int64 {
	return cw.written
}

func (cw *Writer) flush() error {
	if len(cw.buf) == 0 {
		return nil
	}

	payload, err := compressBlock(cw.codec, cw.buf)
	if err != nil {
		return err
	}

	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(cw.buf)))
	if payload == nil {
		payload = cw.buf
	} else {
		binary.LittleEndian.PutUint32(hdr[4:], uint32(len(payload)))
	}

	for _, part := range [][]byte{hdr[:], payload} {
		n, err := cw.w.Write(part)
		cw.written += int64(n)
		if err != nil {
			return err
		}
	}

	cw.buf = cw.buf[:0]
	return nil
}

// compressBlock returns nil when the block should be stored raw.
func compressBlock(codec Codec, data []byte) ([]byte, error) {
	var compressed []byte

	switch codec {
	case LZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, err
		}
		compressed = dst[:n]
	case ZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, nil
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		return nil, nil
	}
	return compressed, nil
}
