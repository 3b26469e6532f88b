package levenshtein

import (
	"fmt"
	"slices"

	"github.com/hupe1980/fst/automaton"
)

const (
	// DefaultStateLimit bounds the byte DFA size.
	DefaultStateLimit = 10000

	// MaxDistance is the largest supported edit distance.
	MaxDistance = 64

	dead = 0
)

type options struct {
	stateLimit int
}

// Option configures New.
type Option func(*options)

// WithStateLimit bounds the number of byte DFA states. Queries that need more
// fail with automaton.ErrTooLarge.
func WithStateLimit(n int) Option {
	return func(o *options) {
		o.stateLimit = n
	}
}

// Levenshtein is a compiled edit-distance automaton. It is immutable and safe
// for concurrent use.
type Levenshtein struct {
	query       string
	maxDistance int
	trans       [][256]int32
	match       []bool
}

var _ automaton.Automaton = (*Levenshtein)(nil)

// New compiles an automaton matching keys within maxDistance edits of query.
func New(query string, maxDistance int, opts ...Option) (*Levenshtein, error) {
	o := options{stateLimit: DefaultStateLimit}
	for _, fn := range opts {
		fn(&o)
	}

	if maxDistance < 0 {
		return nil, automaton.NewCompileError(automaton.ErrSyntax, query,
			fmt.Sprintf("negative distance %d", maxDistance), nil)
	}
	if maxDistance > MaxDistance {
		return nil, automaton.NewCompileError(automaton.ErrTooLarge, query,
			fmt.Sprintf("distance %d exceeds %d", maxDistance, MaxDistance), nil)
	}

	rd, err := buildRuneDFA([]rune(query), maxDistance, o.stateLimit)
	if err != nil {
		return nil, automaton.NewCompileError(automaton.ErrTooLarge, query, err.Error(), err)
	}

	bd := newByteDFA(rd, o.stateLimit)
	if err := bd.build(); err != nil {
		return nil, automaton.NewCompileError(automaton.ErrTooLarge, query, err.Error(), err)
	}

	return &Levenshtein{
		query:       query,
		maxDistance: maxDistance,
		trans:       bd.trans,
		match:       bd.match,
	}, nil
}

// Query returns the query the automaton was compiled for.
func (l *Levenshtein) Query() string { return l.query }

// MaxDistance returns the edit distance bound.
func (l *Levenshtein) MaxDistance() int { return l.maxDistance }

// NumStates returns the number of byte DFA states, including the dead state.
func (l *Levenshtein) NumStates() int { return len(l.trans) }

func (l *Levenshtein) Start() int { return 1 }

func (l *Levenshtein) Accept(state int, b byte) (int, bool) {
	next := l.trans[state][b]
	return int(next), next != dead
}

func (l *Levenshtein) IsMatch(state int) bool { return l.match[state] }

// CanMatch holds for every live state: from a live row, appending the rest of
// the query always reaches a match.
func (l *Levenshtein) CanMatch(state int) bool { return state != dead }

// runeDFA is the character-level automaton. Character classes are the
// distinct query runes in ascending order plus a final "other" class.
type runeDFA struct {
	query   []rune
	k       int
	classes []rune
	rows    [][]uint8
	next    [][]int // [state][class] -> state, -1 dead
}

func (d *runeDFA) other() int { return len(d.classes) }

func (d *runeDFA) classOf(r rune) int {
	if i, ok := slices.BinarySearch(d.classes, r); ok {
		return i
	}
	return d.other()
}

func (d *runeDFA) isMatch(state int) bool {
	return int(d.rows[state][len(d.query)]) <= d.k
}

func buildRuneDFA(query []rune, k, limit int) (*runeDFA, error) {
	classes := slices.Clone(query)
	slices.Sort(classes)
	classes = slices.Compact(classes)

	d := &runeDFA{query: query, k: k, classes: classes}
	capped := uint8(k + 1)

	start := make([]uint8, len(query)+1)
	for i := range start {
		start[i] = uint8(min(i, k+1))
	}

	index := map[string]int{string(start): 0}
	d.rows = append(d.rows, start)

	for s := 0; s < len(d.rows); s++ {
		row := d.rows[s]
		trans := make([]int, len(classes)+1)

		for c := 0; c <= len(classes); c++ {
			var ch rune = -1
			if c < len(classes) {
				ch = classes[c]
			}

			next, alive := step(query, row, ch, capped)
			if !alive {
				trans[c] = -1
				continue
			}

			id, ok := index[string(next)]
			if !ok {
				if limit > 0 && len(d.rows) >= limit {
					return nil, fmt.Errorf("more than %d character states", limit)
				}
				id = len(d.rows)
				index[string(next)] = id
				d.rows = append(d.rows, next)
			}
			trans[c] = id
		}

		d.next = append(d.next, trans)
	}

	return d, nil
}

// step advances one edit-distance row by ch. ch = -1 stands for a character
// that does not occur in the query.
func step(query []rune, row []uint8, ch rune, capped uint8) ([]uint8, bool) {
	next := make([]uint8, len(row))
	next[0] = min(row[0]+1, capped)
	alive := next[0] < capped

	for i := 1; i < len(row); i++ {
		cost := uint8(1)
		if query[i-1] == ch {
			cost = 0
		}
		v := min(row[i-1]+cost, row[i]+1, next[i-1]+1, capped)
		next[i] = v
		if v < capped {
			alive = true
		}
	}

	return next, alive
}
