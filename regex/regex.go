package regex

import (
	"errors"
	"regexp/syntax"

	"github.com/hupe1980/fst/automaton"
)

const (
	// DefaultSizeLimit bounds the number of NFA instructions.
	DefaultSizeLimit = 100000
	// DefaultStateLimit bounds the number of DFA states.
	DefaultStateLimit = 10000
)

type options struct {
	sizeLimit  int
	stateLimit int
	flags      syntax.Flags
}

// Option configures New.
type Option func(*options)

// WithSizeLimit bounds the number of NFA instructions.
func WithSizeLimit(n int) Option {
	return func(o *options) {
		o.sizeLimit = n
	}
}

// WithStateLimit bounds the number of DFA states.
func WithStateLimit(n int) Option {
	return func(o *options) {
		o.stateLimit = n
	}
}

// WithCaseInsensitive makes the whole pattern case-insensitive, as (?i) does.
func WithCaseInsensitive() Option {
	return func(o *options) {
		o.flags |= syntax.FoldCase
	}
}

// Regex is a compiled, anchored regular expression automaton. It is immutable
// and safe for concurrent use.
type Regex struct {
	pattern string
	dfa     *dfa
}

var _ automaton.Automaton = (*Regex)(nil)

// New compiles pattern.
func New(pattern string, opts ...Option) (*Regex, error) {
	o := options{
		sizeLimit:  DefaultSizeLimit,
		stateLimit: DefaultStateLimit,
		flags:      syntax.Perl,
	}
	for _, fn := range opts {
		fn(&o)
	}

	re, err := syntax.Parse(pattern, o.flags)
	if err != nil {
		return nil, automaton.NewCompileError(automaton.ErrSyntax, pattern, err.Error(), err)
	}
	re = re.Simplify()

	prog, err := compileNFA(re, o.sizeLimit)
	if err != nil {
		return nil, compileError(pattern, err, "nfa")
	}

	d, err := determinize(prog, o.stateLimit)
	if err != nil {
		return nil, compileError(pattern, err, "dfa")
	}

	return &Regex{pattern: pattern, dfa: d}, nil
}

func compileError(pattern string, err error, stage string) error {
	switch {
	case errors.Is(err, automaton.ErrUnsupported):
		return automaton.NewCompileError(automaton.ErrUnsupported, pattern, err.Error(), err)
	default:
		return automaton.NewCompileError(automaton.ErrTooLarge, pattern, stage+" size limit exceeded", err)
	}
}

// String returns the source pattern.
func (r *Regex) String() string { return r.pattern }

// NumStates returns the number of DFA states, including the dead state.
func (r *Regex) NumStates() int { return r.dfa.numStates() }

func (r *Regex) Start() int { return int(r.dfa.start) }

func (r *Regex) Accept(state int, b byte) (int, bool) {
	next := r.dfa.next(state, b)
	return int(next), next != 0
}

func (r *Regex) IsMatch(state int) bool { return r.dfa.match[state] }

func (r *Regex) CanMatch(state int) bool { return r.dfa.canMatch[state] }
