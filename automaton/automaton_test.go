package automaton

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eval runs a over key and reports whether the key is accepted.
func eval(a Automaton, key string) bool {
	state := a.Start()
	for i := 0; i < len(key); i++ {
		next, ok := a.Accept(state, key[i])
		if !ok {
			return false
		}
		state = next
	}
	return a.IsMatch(state)
}

func filter(a Automaton, keys []string) []string {
	var out []string
	for _, k := range keys {
		if eval(a, k) {
			out = append(out, k)
		}
	}
	return out
}

var words = []string{"", "a", "ab", "abc", "abd", "b", "ba", "bruce", "c", "clarence", "danny", "garry", "max", "roy", "roya", "stevie"}

func TestStr(t *testing.T) {
	assert.Equal(t, []string{"ab"}, filter(Str("ab"), words))
	assert.Equal(t, []string{""}, filter(Str(""), words))
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, []string{"a", "ab", "abc", "abd"}, filter(Prefix("a"), words))
	assert.Equal(t, words, filter(Prefix(""), words))
}

func TestAlwaysMatch(t *testing.T) {
	assert.Equal(t, words, filter(AlwaysMatch{}, words))
}

func TestStartsWith(t *testing.T) {
	got := filter(StartsWith(Str("ab")), words)
	assert.Equal(t, []string{"ab", "abc", "abd"}, got)
}

func TestComplement(t *testing.T) {
	got := filter(Complement(Prefix("a")), words)
	assert.NotContains(t, got, "abc")
	assert.Contains(t, got, "")
	assert.Contains(t, got, "bruce")
	assert.Len(t, got, len(words)-4)
}

func TestCombinators_Nested(t *testing.T) {
	tests := []struct {
		name string
		a    Automaton
		keys []string
		want []string
	}{
		{
			name: "complement of starts with",
			a:    Complement(StartsWith(Str("ab"))),
			keys: words,
			want: []string{"", "a", "b", "ba", "bruce", "c", "clarence", "danny", "garry", "max", "roy", "roya", "stevie"},
		},
		{
			name: "double complement",
			a:    Complement(Complement(Str("x"))),
			keys: []string{"", "x", "xy", "y"},
			want: []string{"x"},
		},
		{
			name: "double complement of starts with",
			a:    Complement(Complement(StartsWith(Str("ab")))),
			keys: words,
			want: []string{"ab", "abc", "abd"},
		},
		{
			name: "starts with complement",
			a:    StartsWith(Complement(Str(""))),
			keys: words,
			want: words[1:],
		},
		{
			name: "complement of empty key",
			a:    Complement(Str("")),
			keys: []string{"", "a", "ab"},
			want: []string{"a", "ab"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filter(tt.a, tt.keys))
		})
	}
}

func TestRange(t *testing.T) {
	tests := []struct {
		name string
		r    *Range
		want []string
	}{
		{"ge c le roy", NewRange().Ge([]byte("c")).Le([]byte("roy")),
			[]string{"c", "clarence", "danny", "garry", "max", "roy"}},
		{"gt c lt roy", NewRange().Gt([]byte("c")).Lt([]byte("roy")),
			[]string{"clarence", "danny", "garry", "max"}},
		{"ge ab", NewRange().Ge([]byte("ab")),
			[]string{"ab", "abc", "abd", "b", "ba", "bruce", "c", "clarence", "danny", "garry", "max", "roy", "roya", "stevie"}},
		{"lt ab", NewRange().Lt([]byte("ab")), []string{"", "a"}},
		{"le ab", NewRange().Le([]byte("ab")), []string{"", "a", "ab"}},
		{"unbounded", NewRange(), words},
		{"empty", NewRange().Ge([]byte("z")).Le([]byte("a")), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filter(tt.r, words))
			for _, w := range words {
				assert.Equal(t, tt.r.Contains([]byte(w)), eval(tt.r, w), "key %q", w)
			}
		})
	}
}

func TestRange_Empty(t *testing.T) {
	assert.True(t, NewRange().Ge([]byte("b")).Lt([]byte("b")).Empty())
	assert.False(t, NewRange().Ge([]byte("b")).Le([]byte("b")).Empty())
	assert.True(t, NewRange().Gt([]byte("b")).Le([]byte("a")).Empty())
	assert.False(t, NewRange().Ge([]byte("b")).Empty())
	assert.False(t, NewRange().Bounded())
}

func TestRange_ByteHints(t *testing.T) {
	r := NewRange().Ge([]byte("cl")).Lt([]byte("d"))
	s := r.Start()

	assert.Equal(t, byte('c'), r.MinByte(s))
	hi, ok := r.MaxByte(s)
	require.True(t, ok)
	assert.Equal(t, byte('d'), hi)

	s, ok = r.Accept(s, 'c')
	require.True(t, ok)
	assert.Equal(t, byte('l'), r.MinByte(s))
	hi, ok = r.MaxByte(s)
	require.True(t, ok)
	assert.Equal(t, byte(0xFF), hi)

	// At the exclusive upper bound itself nothing below can match.
	s2, ok := r.Accept(r.Start(), 'd')
	require.True(t, ok)
	assert.False(t, r.CanMatch(s2))
	_, ok = r.MaxByte(s2)
	assert.False(t, ok)
}

func TestCompileError(t *testing.T) {
	cause := errors.New("boom")
	err := NewCompileError(ErrTooLarge, "foo", "42 states", cause)

	var wrapped error = fmt.Errorf("search: %w", err)
	assert.ErrorIs(t, wrapped, ErrTooLarge)
	assert.NotErrorIs(t, wrapped, ErrSyntax)
	assert.ErrorIs(t, wrapped, cause)

	var ce *CompileError
	require.ErrorAs(t, wrapped, &ce)
	assert.Equal(t, "foo", ce.Source)
	assert.Contains(t, err.Error(), "42 states")
}
