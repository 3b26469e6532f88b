package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyHeap_Order(t *testing.T) {
	h := NewKeyHeap(4)

	h.Push(Item{Key: []byte("m"), Index: 0})
	h.Push(Item{Key: []byte("b"), Index: 2})
	h.Push(Item{Key: []byte("b"), Index: 1})
	h.Push(Item{Key: []byte("ab"), Index: 3})
	h.Push(Item{Key: []byte("a"), Index: 4})

	top, ok := h.Peek()
	require.True(t, ok)
	assert.Equal(t, "a", string(top.Key))

	var got []string
	var idx []int
	for h.Len() > 0 {
		it, ok := h.Pop()
		require.True(t, ok)
		got = append(got, string(it.Key))
		idx = append(idx, it.Index)
	}

	assert.Equal(t, []string{"a", "ab", "b", "b", "m"}, got)
	assert.Equal(t, []int{4, 3, 1, 2, 0}, idx)
}

func TestKeyHeap_Empty(t *testing.T) {
	h := NewKeyHeap(0)

	_, ok := h.Pop()
	assert.False(t, ok)
	_, ok = h.Peek()
	assert.False(t, ok)

	h.Push(Item{Key: []byte("x"), Value: 7})
	h.Reset()
	assert.Equal(t, 0, h.Len())
}
