package regex

import (
	"fmt"
	"regexp/syntax"
	"unicode"
	"unicode/utf8"

	"github.com/hupe1980/fst/automaton"
	"github.com/hupe1980/fst/internal/utf8seq"
)

type opcode uint8

const (
	opFail opcode = iota
	opMatch
	opRange     // consume one byte in [lo, hi], continue at out
	opSplit     // continue at both out and alt
	opBeginText // continue at out before the first byte only
	opEndText   // continue at out after the last byte only
)

type inst struct {
	op     opcode
	lo, hi byte
	out    int
	alt    int
}

type rangeKey struct {
	lo, hi byte
	out    int
}

// nfa is a Thompson NFA over bytes.
type nfa struct {
	insts []inst
	start int
	match int
	limit int

	ranges map[rangeKey]int
}

func newNFA(limit int) *nfa {
	return &nfa{limit: limit, ranges: make(map[rangeKey]int)}
}

func (n *nfa) add(i inst) (int, error) {
	if n.limit > 0 && len(n.insts) >= n.limit {
		return 0, automaton.ErrTooLarge
	}
	n.insts = append(n.insts, i)
	return len(n.insts) - 1, nil
}

func (n *nfa) addRange(lo, hi byte, out int) (int, error) {
	key := rangeKey{lo, hi, out}
	if id, ok := n.ranges[key]; ok {
		return id, nil
	}
	id, err := n.add(inst{op: opRange, lo: lo, hi: hi, out: out})
	if err != nil {
		return 0, err
	}
	n.ranges[key] = id
	return id, nil
}

func (n *nfa) split(a, b int) (int, error) {
	return n.add(inst{op: opSplit, out: a, alt: b})
}

func compileNFA(re *syntax.Regexp, limit int) (*nfa, error) {
	n := newNFA(limit)

	match, err := n.add(inst{op: opMatch})
	if err != nil {
		return nil, err
	}

	n.match = match

	start, err := n.compile(re, match)
	if err != nil {
		return nil, err
	}
	n.start = start

	return n, nil
}

// compile emits code for re that continues at next and returns its entry.
func (n *nfa) compile(re *syntax.Regexp, next int) (int, error) {
	switch re.Op {
	case syntax.OpNoMatch:
		return n.add(inst{op: opFail})

	case syntax.OpEmptyMatch:
		return next, nil

	case syntax.OpBeginText:
		return n.add(inst{op: opBeginText, out: next})

	case syntax.OpEndText:
		return n.add(inst{op: opEndText, out: next})

	case syntax.OpBeginLine, syntax.OpEndLine:
		return 0, unsupported("line anchors")

	case syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return 0, unsupported("word boundaries")

	case syntax.OpLiteral:
		fold := re.Flags&syntax.FoldCase != 0
		var err error
		for i := len(re.Rune) - 1; i >= 0; i-- {
			if next, err = n.compileRanges(literalRanges(re.Rune[i], fold), next); err != nil {
				return 0, err
			}
		}
		return next, nil

	case syntax.OpCharClass:
		ranges := make([][2]rune, 0, len(re.Rune)/2)
		for i := 0; i+1 < len(re.Rune); i += 2 {
			ranges = append(ranges, [2]rune{re.Rune[i], re.Rune[i+1]})
		}
		return n.compileRanges(ranges, next)

	case syntax.OpAnyCharNotNL:
		return n.compileRanges([][2]rune{{0, '\n' - 1}, {'\n' + 1, utf8.MaxRune}}, next)

	case syntax.OpAnyChar:
		return n.compileRanges([][2]rune{{0, utf8.MaxRune}}, next)

	case syntax.OpCapture:
		return n.compile(re.Sub[0], next)

	case syntax.OpConcat:
		var err error
		for i := len(re.Sub) - 1; i >= 0; i-- {
			if next, err = n.compile(re.Sub[i], next); err != nil {
				return 0, err
			}
		}
		return next, nil

	case syntax.OpAlternate:
		starts := make([]int, len(re.Sub))
		for i, sub := range re.Sub {
			s, err := n.compile(sub, next)
			if err != nil {
				return 0, err
			}
			starts[i] = s
		}
		return n.alternate(starts)

	case syntax.OpStar:
		loop, err := n.split(-1, next)
		if err != nil {
			return 0, err
		}
		body, err := n.compile(re.Sub[0], loop)
		if err != nil {
			return 0, err
		}
		n.insts[loop].out = body
		return loop, nil

	case syntax.OpPlus:
		loop, err := n.split(-1, next)
		if err != nil {
			return 0, err
		}
		body, err := n.compile(re.Sub[0], loop)
		if err != nil {
			return 0, err
		}
		n.insts[loop].out = body
		return body, nil

	case syntax.OpQuest:
		body, err := n.compile(re.Sub[0], next)
		if err != nil {
			return 0, err
		}
		return n.split(body, next)

	case syntax.OpRepeat:
		return n.compileRepeat(re, next)

	default:
		return 0, unsupported(fmt.Sprintf("operator %v", re.Op))
	}
}

// compileRepeat expands x{min,max}. Simplify normally rewrites repeats, so
// this only runs for hand-built syntax trees.
func (n *nfa) compileRepeat(re *syntax.Regexp, next int) (int, error) {
	sub := re.Sub[0]
	var err error

	if re.Max == -1 {
		star := &syntax.Regexp{Op: syntax.OpStar, Sub: []*syntax.Regexp{sub}}
		if next, err = n.compile(star, next); err != nil {
			return 0, err
		}
	} else {
		for range re.Max - re.Min {
			body, err := n.compile(sub, next)
			if err != nil {
				return 0, err
			}
			if next, err = n.split(body, next); err != nil {
				return 0, err
			}
		}
	}

	for range re.Min {
		if next, err = n.compile(sub, next); err != nil {
			return 0, err
		}
	}
	return next, nil
}

func (n *nfa) alternate(starts []int) (int, error) {
	if len(starts) == 0 {
		return n.add(inst{op: opFail})
	}
	entry := starts[len(starts)-1]
	for i := len(starts) - 2; i >= 0; i-- {
		var err error
		if entry, err = n.split(starts[i], entry); err != nil {
			return 0, err
		}
	}
	return entry, nil
}

// compileRanges matches one code point in any of ranges.
func (n *nfa) compileRanges(ranges [][2]rune, next int) (int, error) {
	var starts []int
	for _, r := range ranges {
		for _, seq := range utf8seq.Split(r[0], r[1]) {
			s := next
			for i := len(seq) - 1; i >= 0; i-- {
				var err error
				if s, err = n.addRange(seq[i].Lo, seq[i].Hi, s); err != nil {
					return 0, err
				}
			}
			starts = append(starts, s)
		}
	}
	return n.alternate(starts)
}

// literalRanges returns r, or its simple case-folding orbit when fold is set.
func literalRanges(r rune, fold bool) [][2]rune {
	out := [][2]rune{{r, r}}
	if !fold {
		return out
	}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		out = append(out, [2]rune{f, f})
	}
	return out
}

func unsupported(what string) error {
	return fmt.Errorf("%w: %s", automaton.ErrUnsupported, what)
}
