// Package queue provides the min-heap that drives k-way merges of ordered
// key streams.
package queue

import "bytes"

// Item is one source's current head in a merge.
type Item struct {
	Key   []byte // current key of the source; owned by the source
	Index int    // source index, breaks ties between equal keys
	Value uint64
}

// KeyHeap is a min-heap ordered by (Key, Index). Items are stored by value.
type KeyHeap struct {
	items []Item
}

// NewKeyHeap creates an empty heap with room for capacity items.
func NewKeyHeap(capacity int) *KeyHeap {
	return &KeyHeap{items: make([]Item, 0, capacity)}
}

// Len returns the number of items in the heap.
func (h *KeyHeap) Len() int { return len(h.items) }

// Push inserts an item while maintaining the heap invariant.
func (h *KeyHeap) Push(item Item) {
	h.items = append(h.items, item)
	h.siftUp(len(h.items) - 1)
}

// Peek returns the smallest item without removing it.
func (h *KeyHeap) Peek() (Item, bool) {
	if len(h.items) == 0 {
		return Item{}, false
	}
	return h.items[0], true
}

// Pop removes and returns the smallest item.
func (h *KeyHeap) Pop() (Item, bool) {
	n := len(h.items)
	if n == 0 {
		return Item{}, false
	}

	root := h.items[0]
	last := h.items[n-1]
	h.items[n-1] = Item{}
	h.items = h.items[:n-1]
	if n-1 > 0 {
		h.items[0] = last
		h.siftDown(0)
	}

	return root, true
}

// Reset empties the heap, keeping its capacity.
func (h *KeyHeap) Reset() {
	clear(h.items)
	h.items = h.items[:0]
}

func (h *KeyHeap) less(i, j int) bool {
	if c := bytes.Compare(h.items[i].Key, h.items[j].Key); c != 0 {
		return c < 0
	}
	return h.items[i].Index < h.items[j].Index
}

func (h *KeyHeap) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !h.less(i, p) {
			return
		}
		h.items[i], h.items[p] = h.items[p], h.items[i]
		i = p
	}
}

func (h *KeyHeap) siftDown(i int) {
	n := len(h.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && h.less(r, l) {
			best = r
		}
		if !h.less(best, i) {
			return
		}
		h.items[i], h.items[best] = h.items[best], h.items[i]
		i = best
	}
}
