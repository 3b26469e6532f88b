package levenshtein

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// byteDFA expands a runeDFA into a DFA over UTF-8 bytes. State 0 is dead;
// state r+1 is the byte state of character state r.
type byteDFA struct {
	rd    *runeDFA
	limit int
	trans [][256]int32
	match []bool

	// encodings of multi-byte query runes, by class
	encs []string

	partial map[partialKey]int32
	cont    map[contKey]int32
}

// partialKey is a byte state inside a sequence that may still spell a query
// rune.
type partialKey struct {
	state  int
	prefix string
}

// contKey is a byte state that must consume n continuation bytes (the first
// within [lo, hi]) before reaching character state target.
type contKey struct {
	target int
	n      int
	lo, hi byte
}

func newByteDFA(rd *runeDFA, limit int) *byteDFA {
	bd := &byteDFA{
		rd:      rd,
		limit:   limit,
		partial: make(map[partialKey]int32),
		cont:    make(map[contKey]int32),
	}
	for _, r := range rd.classes {
		var enc string
		if r >= utf8.RuneSelf {
			enc = string(r)
		}
		bd.encs = append(bd.encs, enc)
	}
	return bd
}

func (bd *byteDFA) build() error {
	// dead state
	bd.trans = append(bd.trans, [256]int32{})
	bd.match = append(bd.match, false)

	for r := range bd.rd.rows {
		bd.trans = append(bd.trans, [256]int32{})
		bd.match = append(bd.match, bd.rd.isMatch(r))
	}
	if err := bd.checkLimit(); err != nil {
		return err
	}

	for r := range bd.rd.rows {
		if err := bd.fillChar(int32(r+1), r); err != nil {
			return err
		}
	}
	return nil
}

func (bd *byteDFA) checkLimit() error {
	if bd.limit > 0 && len(bd.trans) > bd.limit {
		return fmt.Errorf("more than %d byte states", bd.limit)
	}
	return nil
}

func (bd *byteDFA) newState() (int32, error) {
	bd.trans = append(bd.trans, [256]int32{})
	bd.match = append(bd.match, false)
	return int32(len(bd.trans) - 1), bd.checkLimit()
}

func charState(r int) int32 {
	if r < 0 {
		return 0
	}
	return int32(r + 1)
}

// fillChar sets the transitions of the byte state of character state r.
func (bd *byteDFA) fillChar(s int32, r int) error {
	next := bd.rd.next[r]
	other := next[bd.rd.other()]

	for b := 0; b < 256; b++ {
		lead := byte(b)

		switch {
		case lead < utf8.RuneSelf:
			bd.trans[s][b] = charState(next[bd.rd.classOf(rune(lead))])

		case lead >= 0xC2 && lead <= 0xF4:
			var (
				t   int32
				err error
			)
			if bd.isQueryPrefix(string(lead)) {
				t, err = bd.partialState(r, string(lead))
			} else {
				lo, hi := secondByteRange(lead)
				t, err = bd.contState(other, seqLen(lead)-1, lo, hi)
			}
			if err != nil {
				return err
			}
			bd.trans[s][b] = t
		}
	}
	return nil
}

func (bd *byteDFA) isQueryPrefix(prefix string) bool {
	for _, enc := range bd.encs {
		if enc != "" && strings.HasPrefix(enc, prefix) {
			return true
		}
	}
	return false
}

func (bd *byteDFA) queryClass(enc string) int {
	for c, e := range bd.encs {
		if e != "" && e == enc {
			return c
		}
	}
	return -1
}

func (bd *byteDFA) partialState(r int, prefix string) (int32, error) {
	key := partialKey{state: r, prefix: prefix}
	if s, ok := bd.partial[key]; ok {
		return s, nil
	}

	s, err := bd.newState()
	if err != nil {
		return 0, err
	}
	bd.partial[key] = s

	lead := prefix[0]
	lo, hi := byte(0x80), byte(0xBF)
	if len(prefix) == 1 {
		lo, hi = secondByteRange(lead)
	}

	next := bd.rd.next[r]
	other := next[bd.rd.other()]

	for b := int(lo); b <= int(hi); b++ {
		p := prefix + string(byte(b))

		var t int32
		switch {
		case bd.queryClass(p) >= 0:
			t = charState(next[bd.queryClass(p)])
		case bd.isQueryPrefix(p):
			t, err = bd.partialState(r, p)
		default:
			rem := seqLen(lead) - len(p)
			if rem == 0 {
				t = charState(other)
			} else {
				t, err = bd.contState(other, rem, 0x80, 0xBF)
			}
		}
		if err != nil {
			return 0, err
		}
		bd.trans[s][b] = t
	}

	return s, nil
}

func (bd *byteDFA) contState(target, n int, lo, hi byte) (int32, error) {
	if target < 0 {
		return 0, nil
	}

	key := contKey{target: target, n: n, lo: lo, hi: hi}
	if s, ok := bd.cont[key]; ok {
		return s, nil
	}

	var t int32
	if n == 1 {
		t = charState(target)
	} else {
		var err error
		if t, err = bd.contState(target, n-1, 0x80, 0xBF); err != nil {
			return 0, err
		}
	}

	s, err := bd.newState()
	if err != nil {
		return 0, err
	}
	bd.cont[key] = s

	for b := int(lo); b <= int(hi); b++ {
		bd.trans[s][b] = t
	}
	return s, nil
}

// seqLen returns the encoded length announced by a valid lead byte.
func seqLen(lead byte) int {
	switch {
	case lead >= 0xF0:
		return 4
	case lead >= 0xE0:
		return 3
	default:
		return 2
	}
}

// secondByteRange excludes overlong encodings, surrogates and values above
// U+10FFFF.
func secondByteRange(lead byte) (byte, byte) {
	switch lead {
	case 0xE0:
		return 0xA0, 0xBF
	case 0xED:
		return 0x80, 0x9F
	case 0xF0:
		return 0x90, 0xBF
	case 0xF4:
		return 0x80, 0x8F
	default:
		return 0x80, 0xBF
	}
}
