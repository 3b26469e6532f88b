package fst

import (
	"errors"
	"fmt"

	"github.com/hupe1980/fst/automaton"
)

var (
	// ErrBuilderClosed is returned by every Builder method after Finish or
	// after a failed insert.
	ErrBuilderClosed = errors.New("fst: builder closed")

	// ErrOutOfOrder is matched by *OutOfOrderError.
	ErrOutOfOrder = errors.New("fst: key out of order")

	// ErrCorruptData is returned when a serialized FST is truncated or
	// structurally invalid.
	ErrCorruptData = errors.New("fst: corrupt data")

	// ErrVersionMismatch is matched by *VersionMismatchError.
	ErrVersionMismatch = errors.New("fst: version mismatch")

	// ErrUTF8 is matched by *UTF8Error.
	ErrUTF8 = errors.New("fst: invalid utf-8")

	// ErrNotMemoryBuilder is returned by Builder.Bytes for builders that
	// stream to an external sink.
	ErrNotMemoryBuilder = errors.New("fst: not a memory builder")
)

// AutomatonCompileError is returned when a Levenshtein or regex automaton
// cannot be built. Match the kind with errors.Is against
// automaton.ErrSyntax, automaton.ErrTooLarge or automaton.ErrUnsupported.
type AutomatonCompileError = automaton.CompileError

// OutOfOrderError reports a key that is not strictly greater than the
// previously inserted key.
type OutOfOrderError struct {
	Previous  []byte
	Key       []byte
	Duplicate bool
}

func (e *OutOfOrderError) Error() string {
	if e.Duplicate {
		return fmt.Sprintf("fst: duplicate key %q", e.Key)
	}
	return fmt.Sprintf("fst: key %q inserted after %q", e.Key, e.Previous)
}

func (e *OutOfOrderError) Is(target error) bool { return target == ErrOutOfOrder }

// SinkError wraps an I/O failure of the builder's output.
// Output written before the failure is not a valid FST.
type SinkError struct {
	Op    string
	cause error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("fst: sink %s: %v", e.Op, e.cause)
}

func (e *SinkError) Unwrap() error { return e.cause }

// VersionMismatchError reports a serialized FST written with an
// unsupported format version.
type VersionMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("fst: version mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *VersionMismatchError) Is(target error) bool { return target == ErrVersionMismatch }

// UTF8Error reports a key that is not valid UTF-8 where text was requested.
type UTF8Error struct {
	Key []byte
}

func (e *UTF8Error) Error() string {
	return fmt.Sprintf("fst: key %q is not valid utf-8", e.Key)
}

func (e *UTF8Error) Is(target error) bool { return target == ErrUTF8 }

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptData, fmt.Sprintf(format, args...))
}
