// Package utf8seq converts ranges of Unicode scalar values into sequences of
// byte ranges that match exactly the UTF-8 encodings of those values.
//
// Byte-level automata (regex, Levenshtein) use it to consume whole code
// points while the traversal walks one byte at a time. Surrogates are never
// produced.
package utf8seq

import "unicode/utf8"

// Range is an inclusive byte range.
type Range struct {
	Lo, Hi byte
}

// Sequence matches one byte per Range, in order. Its length is the encoded
// length (1 to 4) of every code point it covers.
type Sequence []Range

// Matches reports whether b is exactly matched by s.
func (s Sequence) Matches(b []byte) bool {
	if len(b) != len(s) {
		return false
	}
	for i, r := range s {
		if b[i] < r.Lo || b[i] > r.Hi {
			return false
		}
	}
	return true
}

const (
	surrogateMin = 0xD800
	surrogateMax = 0xDFFF
)

// encoded length boundaries: the largest scalar encodable in 1, 2 and 3 bytes.
var lengthMax = [...]rune{0x7F, 0x7FF, 0xFFFF}

type span struct{ lo, hi rune }

// Split returns byte sequences matching the encodings of [lo, hi], in
// ascending order of the code points they cover. Invalid or empty ranges
// produce no sequences.
func Split(lo, hi rune) []Sequence {
	if lo < 0 {
		lo = 0
	}
	if hi > utf8.MaxRune {
		hi = utf8.MaxRune
	}

	var out []Sequence
	stack := []span{{lo, hi}}

next:
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for {
			if r.lo > r.hi {
				continue next
			}

			// Cut out the surrogate block.
			if r.lo <= surrogateMax && r.hi >= surrogateMin {
				if r.hi > surrogateMax {
					stack = append(stack, span{surrogateMax + 1, r.hi})
				}
				r.hi = surrogateMin - 1
				continue
			}

			// Both ends must share an encoded length.
			split := false
			for _, m := range lengthMax {
				if r.lo <= m && m < r.hi {
					stack = append(stack, span{m + 1, r.hi})
					r.hi = m
					split = true
					break
				}
			}
			if split {
				continue
			}

			if r.hi <= 0x7F {
				out = append(out, Sequence{{byte(r.lo), byte(r.hi)}})
				continue next
			}

			// Align to continuation-byte boundaries so every position
			// ranges independently.
			for i := 1; i < utf8.UTFMax; i++ {
				mask := rune(1)<<(6*i) - 1
				if r.lo&^mask == r.hi&^mask {
					continue
				}
				if r.lo&mask != 0 {
					stack = append(stack, span{(r.lo | mask) + 1, r.hi})
					r.hi = r.lo | mask
					split = true
					break
				}
				if r.hi&mask != mask {
					stack = append(stack, span{r.hi &^ mask, r.hi})
					r.hi = r.hi&^mask - 1
					split = true
					break
				}
			}
			if split {
				continue
			}

			out = append(out, encodeRange(r.lo, r.hi))
			continue next
		}
	}

	return out
}

func encodeRange(lo, hi rune) Sequence {
	var a, b [utf8.UTFMax]byte
	n := utf8.EncodeRune(a[:], lo)
	utf8.EncodeRune(b[:], hi)

	seq := make(Sequence, n)
	for i := range n {
		seq[i] = Range{a[i], b[i]}
	}
	return seq
}
