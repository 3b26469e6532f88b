package automaton

import "bytes"

// Range matches keys between an optional lower and an optional upper bound.
//
// Each bound is a small automaton over the bound key: it tracks how many
// bytes of the bound have been matched exactly, or that the input already
// diverged to the admissible side. The Range state packs both.
//
// A Range is immutable once handed to a traversal; the bound setters return
// the receiver for chaining while building.
type Range struct {
	lo, hi         []byte
	hasLo, hasHi   bool
	loIncl, hiIncl bool
}

var _ Automaton = (*Range)(nil)

// NewRange returns an unbounded range.
func NewRange() *Range {
	return &Range{}
}

// Ge sets an inclusive lower bound.
func (r *Range) Ge(key []byte) *Range {
	r.lo, r.hasLo, r.loIncl = bytes.Clone(key), true, true
	return r
}

// Gt sets an exclusive lower bound.
func (r *Range) Gt(key []byte) *Range {
	r.lo, r.hasLo, r.loIncl = bytes.Clone(key), true, false
	return r
}

// Le sets an inclusive upper bound.
func (r *Range) Le(key []byte) *Range {
	r.hi, r.hasHi, r.hiIncl = bytes.Clone(key), true, true
	return r
}

// Lt sets an exclusive upper bound.
func (r *Range) Lt(key []byte) *Range {
	r.hi, r.hasHi, r.hiIncl = bytes.Clone(key), true, false
	return r
}

// Clone returns a copy whose bounds can be changed independently of r.
func (r *Range) Clone() *Range {
	c := *r
	return &c
}

// Bounded reports whether any bound is set.
func (r *Range) Bounded() bool {
	return r.hasLo || r.hasHi
}

// Empty reports whether no key can satisfy both bounds.
func (r *Range) Empty() bool {
	if !r.hasLo || !r.hasHi {
		return false
	}
	c := bytes.Compare(r.lo, r.hi)
	return c > 0 || (c == 0 && !(r.loIncl && r.hiIncl))
}

// Contains reports whether key lies within the bounds.
func (r *Range) Contains(key []byte) bool {
	if r.hasLo {
		c := bytes.Compare(key, r.lo)
		if c < 0 || (c == 0 && !r.loIncl) {
			return false
		}
	}
	if r.hasHi {
		c := bytes.Compare(key, r.hi)
		if c > 0 || (c == 0 && !r.hiIncl) {
			return false
		}
	}
	return true
}

// Per-bound states: 0..len(bound) count exactly matched bytes, beyond is the
// value of len(bound)+1, meaning the input already diverged to the
// admissible side (greater than lo, less than hi).
func (r *Range) beyondLo() int { return len(r.lo) + 1 }
func (r *Range) beyondHi() int { return len(r.hi) + 1 }

func (r *Range) pack(lo, hi int) int { return lo*(len(r.hi)+2) + hi }

func (r *Range) unpack(state int) (lo, hi int) {
	w := len(r.hi) + 2
	return state / w, state % w
}

func (r *Range) Start() int {
	lo, hi := 0, 0
	if !r.hasLo {
		lo = r.beyondLo()
	}
	if !r.hasHi {
		hi = r.beyondHi()
	}
	return r.pack(lo, hi)
}

func (r *Range) Accept(state int, b byte) (int, bool) {
	lo, hi := r.unpack(state)

	switch {
	case lo == r.beyondLo():
	case lo == len(r.lo):
		// Any extension of lo is greater than lo.
		lo = r.beyondLo()
	case b > r.lo[lo]:
		lo = r.beyondLo()
	case b == r.lo[lo]:
		lo++
	default:
		return 0, false
	}

	switch {
	case hi == r.beyondHi():
	case hi == len(r.hi):
		// Any extension of hi is greater than hi.
		return 0, false
	case b < r.hi[hi]:
		hi = r.beyondHi()
	case b == r.hi[hi]:
		hi++
	default:
		return 0, false
	}

	return r.pack(lo, hi), true
}

func (r *Range) IsMatch(state int) bool {
	lo, hi := r.unpack(state)

	loOK := lo == r.beyondLo() || (lo == len(r.lo) && r.loIncl)
	// A proper prefix of hi sorts before hi.
	hiOK := hi == r.beyondHi() || hi < len(r.hi) || (hi == len(r.hi) && r.hiIncl)

	return loOK && hiOK
}

func (r *Range) CanMatch(state int) bool {
	_, hi := r.unpack(state)
	// Exactly at an exclusive upper bound every extension is out of range.
	return !(hi == len(r.hi) && r.hasHi && !r.hiIncl)
}

// MinByte returns the smallest byte that keeps state alive. Traversals use it
// to skip transitions below the lower bound.
func (r *Range) MinByte(state int) byte {
	lo, _ := r.unpack(state)
	if lo < len(r.lo) {
		return r.lo[lo]
	}
	return 0
}

// MaxByte returns the largest byte that keeps state alive. ok=false means no
// byte does.
func (r *Range) MaxByte(state int) (byte, bool) {
	_, hi := r.unpack(state)
	switch {
	case hi == r.beyondHi():
		return 0xFF, true
	case hi == len(r.hi):
		return 0, false
	default:
		return r.hi[hi], true
	}
}
