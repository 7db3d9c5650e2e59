// internal/cache/lru.go
//
// Tiny LRU cache used by the HTTP layer to hold per-session form
// controllers.  No external deps; good for a few thousand entries.
//
// Entries are handed out with Acquire and stay pinned until every holder
// calls its release func.  Capacity pressure evicts the least recent
// unpinned entry only, so a controller serving a request is never dropped
// while that request runs.
package cache

import (
	"container/list"
	"errors"
	"sync"
)

// ErrFull is returned by Acquire when the cache is at capacity and every
// entry is pinned.
var ErrFull = errors.New("cache: every entry is in use")

// LRU is a least-recently-used cache safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu   sync.Mutex
	cap  int
	ll   *list.List
	dict map[K]*list.Element
}

type entry[K comparable, V any] struct {
	key  K
	val  V
	refs int
}

// New returns an LRU with the given capacity.  Panics on cap < 1.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &LRU[K, V]{
		cap:  capacity,
		ll:   list.New(),
		dict: make(map[K]*list.Element, capacity),
	}
}

// Acquire returns the value cached for key, storing the result of create on
// a miss, and pins it until release is called.  release is safe to call
// more than once.  A miss on a full cache whose entries are all pinned
// returns ErrFull without calling create.
func (c *LRU[K, V]) Acquire(key K, create func() V) (val V, release func(), err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ele, hit := c.dict[key]
	if hit {
		c.ll.MoveToFront(ele)
	} else {
		if c.ll.Len() >= c.cap && !c.evictLocked() {
			return val, nil, ErrFull
		}
		ele = c.ll.PushFront(&entry[K, V]{key: key, val: create()})
		c.dict[key] = ele
	}

	e := ele.Value.(*entry[K, V])
	e.refs++
	var once sync.Once
	return e.val, func() {
		once.Do(func() {
			c.mu.Lock()
			e.refs--
			c.mu.Unlock()
		})
	}, nil
}

// evictLocked drops the least recent unpinned entry.
func (c *LRU[K, V]) evictLocked() bool {
	for ele := c.ll.Back(); ele != nil; ele = ele.Prev() {
		e := ele.Value.(*entry[K, V])
		if e.refs > 0 {
			continue
		}
		c.ll.Remove(ele)
		delete(c.dict, e.key)
		return true
	}
	return false
}

// Len reports current size.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
