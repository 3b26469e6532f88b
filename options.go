package fst

import (
	"context"
	"log/slog"

	"github.com/hupe1980/fst/internal/compress"
	"github.com/hupe1980/fst/internal/fs"
	"github.com/hupe1980/fst/internal/mmap"
)

const (
	// DefaultRegistrySize is the default number of frozen nodes remembered
	// for deduplication.
	DefaultRegistrySize = 10000

	// DefaultCompressionBlockSize is the raw block size of compressed containers.
	DefaultCompressionBlockSize = 256 << 10
)

// AccessPattern is a hint for how a memory-mapped FST will be read.
type AccessPattern int

const (
	AccessDefault AccessPattern = iota
	AccessSequential
	AccessRandom
	AccessWillNeed
)

func (p AccessPattern) advice() mmap.Advice {
	switch p {
	case AccessSequential:
		return mmap.AdviceSequential
	case AccessRandom:
		return mmap.AdviceRandom
	case AccessWillNeed:
		return mmap.AdviceWillNeed
	default:
		return mmap.AdviceNormal
	}
}

// Compression selects the codec used by Save.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionLZ4
	CompressionZSTD
)

func (c Compression) codec() compress.Codec {
	switch c {
	case CompressionLZ4:
		return compress.LZ4
	case CompressionZSTD:
		return compress.ZSTD
	default:
		return compress.None
	}
}

func (c Compression) String() string {
	return c.codec().String()
}

type options struct {
	ctx              context.Context
	registrySize     int
	memoryLimit      int64
	ioLimit          int64
	verifyChecksum   bool
	accessPattern    AccessPattern
	compression      Compression
	compressionBlock int
	fs               fs.FileSystem
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures builders, readers and storage helpers.
type Option func(*options)

// WithContext sets the context used for logging and for waiting on the IO
// rate limiter. Defaults to context.Background().
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithRegistrySize bounds the number of frozen nodes the builder remembers
// for sharing identical suffixes. Larger values produce smaller FSTs at the
// cost of memory; 0 disables sharing.
func WithRegistrySize(n int) Option {
	return func(o *options) {
		o.registrySize = max(n, 0)
	}
}

// WithMemoryLimit caps the memory used by the builder's node registry.
// When the limit is reached new nodes are not remembered; the output stays
// correct but may be larger.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit rate-limits builder output to bytesPerSec.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithVerifyChecksum controls CRC32C verification on open. Enabled by default.
// Verification reads the whole structure once.
func WithVerifyChecksum(verify bool) Option {
	return func(o *options) {
		o.verifyChecksum = verify
	}
}

// WithAccessPattern sets the madvise hint for OpenFile.
func WithAccessPattern(p AccessPattern) Option {
	return func(o *options) {
		o.accessPattern = p
	}
}

// WithCompression wraps saved FSTs in a compressed container.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithCompressionBlockSize sets the raw block size of compressed containers.
func WithCompressionBlockSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.compressionBlock = n
		}
	}
}

// WithFileSystem sets the file system used by CreateFile.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &fst.BasicMetricsCollector{}
//	f, _ := fst.Open(data, fst.WithMetricsCollector(metrics))
//	// ... search f ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := fst.NewJSONLogger(slog.LevelInfo)
//	b, _ := fst.NewMemoryBuilder(fst.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		ctx:              context.Background(),
		registrySize:     DefaultRegistrySize,
		verifyChecksum:   true,
		compressionBlock: DefaultCompressionBlockSize,
		fs:               fs.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
