package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/fst/internal/resource"
)

// Config bounds an LRU. Zero limits are unbounded.
type Config[K comparable, V any] struct {
	// MaxEntries bounds the number of entries.
	MaxEntries int
	// MaxCost bounds the summed Cost of all entries.
	MaxCost int64
	// Cost reports the accounted size of an entry. Defaults to 1.
	Cost func(K, V) int64
	// Resource, when set, is charged Cost bytes per entry.
	Resource *resource.Controller
}

// LRU is a least-recently-used cache safe for concurrent use.
type LRU[K comparable, V any] struct {
	cfg Config[K, V]

	mu    sync.Mutex
	size  int64
	items map[K]*list.Element
	order *list.List

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
	cost  int64
}

// NewLRU creates an LRU bounded by cfg.
func NewLRU[K comparable, V any](cfg Config[K, V]) *LRU[K, V] {
	if cfg.Cost == nil {
		cfg.Cost = func(K, V) int64 { return 1 }
	}
	return &LRU[K, V]{
		cfg:   cfg,
		items: make(map[K]*list.Element),
		order: list.New(),
	}
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.order.MoveToFront(el)
		return el.Value.(*lruEntry[K, V]).value, true
	}

	c.misses.Add(1)
	var zero V
	return zero, false
}

// Add inserts or replaces key. It reports false when the entry could not be
// admitted: it is larger than MaxCost or the resource controller refused it.
func (c *LRU[K, V]) Add(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}

	cost := c.cfg.Cost(key, value)
	if c.cfg.MaxCost > 0 && cost > c.cfg.MaxCost {
		return false
	}

	// Make room locally first; that returns memory to the controller before
	// we ask it for more.
	for c.overLimit(1, cost) {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.removeElement(back)
		c.evictions.Add(1)
	}

	if err := c.cfg.Resource.AcquireMemory(cost); err != nil {
		return false
	}

	el := c.order.PushFront(&lruEntry[K, V]{key: key, value: value, cost: cost})
	c.items[key] = el
	c.size += cost

	return true
}

// Remove deletes key if present.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if ok {
		c.removeElement(el)
	}
	return ok
}

// RemoveFunc deletes every entry whose key matches pred.
func (c *LRU[K, V]) RemoveFunc(pred func(K) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var doomed []*list.Element
	for key, el := range c.items {
		if pred(key) {
			doomed = append(doomed, el)
		}
	}
	for _, el := range doomed {
		c.removeElement(el)
	}
	return len(doomed)
}

// Purge empties the cache and releases all reserved memory.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for el := c.order.Back(); el != nil; el = c.order.Back() {
		c.removeElement(el)
	}
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Cost returns the summed cost of all entries.
func (c *LRU[K, V]) Cost() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns hit, miss and eviction counts.
func (c *LRU[K, V]) Stats() (hits, misses, evictions int64) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load()
}

func (c *LRU[K, V]) overLimit(extraEntries int, extraCost int64) bool {
	if c.cfg.MaxEntries > 0 && c.order.Len()+extraEntries > c.cfg.MaxEntries {
		return true
	}
	return c.cfg.MaxCost > 0 && c.size+extraCost > c.cfg.MaxCost
}

func (c *LRU[K, V]) removeElement(el *list.Element) {
	c.order.Remove(el)
	ent := el.Value.(*lruEntry[K, V])
	delete(c.items, ent.key)
	c.size -= ent.cost
	c.cfg.Resource.ReleaseMemory(ent.cost)
}
