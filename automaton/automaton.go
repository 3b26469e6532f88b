package automaton

import (
	"errors"
	"fmt"
)

// Automaton is a deterministic byte automaton used to filter keys.
//
// Implementations must be safe for concurrent use: several streams may drive
// one automaton at the same time.
type Automaton interface {
	// Start returns the initial state. States are non-negative.
	Start() int
	// Accept returns the state reached from state on b; ok=false means dead.
	Accept(state int, b byte) (next int, ok bool)
	// IsMatch reports whether a key ending in state is accepted.
	IsMatch(state int) bool
	// CanMatch reports whether state or any state reachable from it matches.
	CanMatch(state int) bool
}

var (
	// ErrSyntax indicates a malformed pattern.
	ErrSyntax = errors.New("automaton: syntax error")
	// ErrTooLarge indicates the compiled automaton exceeded its size limit.
	ErrTooLarge = errors.New("automaton: too large")
	// ErrUnsupported indicates a pattern feature that cannot be expressed as a
	// full-key byte automaton.
	ErrUnsupported = errors.New("automaton: unsupported feature")
)

// CompileError reports a failure to build an automaton.
type CompileError struct {
	// Kind is one of the package sentinel errors.
	Kind error
	// Source is the pattern or query that failed.
	Source string
	// Detail describes the failure.
	Detail string

	cause error
}

// NewCompileError creates a CompileError of kind for source.
func NewCompileError(kind error, source, detail string, cause error) *CompileError {
	return &CompileError{Kind: kind, Source: source, Detail: detail, cause: cause}
}

func (e *CompileError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %q", e.Kind, e.Source)
	}
	return fmt.Sprintf("%v: %q: %s", e.Kind, e.Source, e.Detail)
}

// Is matches the error kind.
func (e *CompileError) Is(target error) bool {
	return target == e.Kind
}

func (e *CompileError) Unwrap() error {
	return e.cause
}
