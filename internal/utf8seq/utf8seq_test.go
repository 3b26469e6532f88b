package utf8seq

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchCount(seqs []Sequence, b []byte) int {
	n := 0
	for _, s := range seqs {
		if s.Matches(b) {
			n++
		}
	}
	return n
}

func TestSplit_ASCII(t *testing.T) {
	seqs := Split('a', 'z')
	require.Len(t, seqs, 1)
	assert.Equal(t, Sequence{{'a', 'z'}}, seqs[0])
}

func TestSplit_TwoByte(t *testing.T) {
	seqs := Split(0x80, 0x7FF)
	require.Len(t, seqs, 1)
	assert.Equal(t, Sequence{{0xC2, 0xDF}, {0x80, 0xBF}}, seqs[0])
}

func TestSplit_FullRange(t *testing.T) {
	seqs := Split(0, utf8.MaxRune)

	samples := []rune{0, 'a', 0x7F, 0x80, 0xE9, 0x7FF, 0x800, 0xD7FF, 0xE000, 0xFFFF, 0x10000, 0x1F600, utf8.MaxRune}
	for _, r := range samples {
		buf := make([]byte, utf8.RuneLen(r))
		utf8.EncodeRune(buf, r)
		assert.Equal(t, 1, matchCount(seqs, buf), "rune %U", r)
	}

	// Surrogate encodings (ED A0..BF xx) are not valid UTF-8.
	assert.Equal(t, 0, matchCount(seqs, []byte{0xED, 0xA0, 0x80}))
	assert.Equal(t, 0, matchCount(seqs, []byte{0xC0, 0x80}))
}

func TestSplit_Exhaustive(t *testing.T) {
	lo, hi := rune(0x600), rune(0x10450)
	seqs := Split(lo, hi)

	for r := rune(0x500); r <= 0x10500; r++ {
		if !utf8.ValidRune(r) {
			continue
		}
		buf := make([]byte, utf8.RuneLen(r))
		utf8.EncodeRune(buf, r)

		want := 0
		if r >= lo && r <= hi {
			want = 1
		}
		require.Equal(t, want, matchCount(seqs, buf), "rune %U", r)
	}
}

func TestSplit_Ascending(t *testing.T) {
	seqs := Split(0x70, 0x900)
	require.NotEmpty(t, seqs)
	assert.Equal(t, Sequence{{0x70, 0x7F}}, seqs[0])
	for i := 1; i < len(seqs); i++ {
		assert.LessOrEqual(t, len(seqs[i-1]), len(seqs[i]))
	}
}

func TestSplit_Empty(t *testing.T) {
	assert.Empty(t, Split('z', 'a'))
	assert.Empty(t, Split(0xD800, 0xDFFF))
}
