package fst

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with fst-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// WithName adds a name field (file path or blob name) to the logger.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("name", name),
	}
}

// LogBuild logs the completion of a builder.
func (l *Logger) LogBuild(ctx context.Context, stats BuildStats, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"keys", stats.Keys,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "build completed",
		"keys", stats.Keys,
		"nodes", stats.NodesWritten,
		"registry_hits", stats.RegistryHits,
		"bytes", stats.BytesWritten,
		"duration", d,
	)
}

// LogOpen logs opening a serialized FST.
func (l *Logger) LogOpen(ctx context.Context, size int, keys uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"size", size,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "open completed",
		"size", size,
		"keys", keys,
	)
}

// LogSearch logs the end of a stream.
func (l *Logger) LogSearch(ctx context.Context, results int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"results", results,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "search completed",
		"results", results,
		"duration", d,
	)
}

// LogSave logs persisting an FST to a blob store.
func (l *Logger) LogSave(ctx context.Context, name string, bytes int64, codec string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "save completed",
		"name", name,
		"bytes", bytes,
		"compression", codec,
	)
}
