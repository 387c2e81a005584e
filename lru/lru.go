// Package lru implements the Hot-End LRU: an ordered associative container
// that approximates LRU eviction but resists pollution by one-shot scans.
// A freshly inserted item starts in the cold region; only items visited
// again are promoted to the hot region, where they survive a pass of
// evictions that would otherwise remove cold items of equivalent recency.
//
// Cache is safe for concurrent use. Get takes the read lock and never
// blocks a concurrent Get; Put, Remove, Resize, TrimTo, and TraverseTrim
// take the write lock for their full duration.
package lru

import "sync"

// Cache is a Hot-End LRU keyed by K, holding values of type V.
//
// The zero value is not usable; construct with New.
type Cache[K comparable, V any] struct {
	mu sync.RWMutex

	index map[K]*node[K, V]

	hotHead  *node[K, V] // MRU end of the hot region
	coldHead *node[K, V] // MRU end of the cold region

	curSize    int
	maxSize    int
	hotSize    int
	maxHotSize int

	sizeOf func(V) int
}

// New constructs a Cache with the given capacity (in size units) and the
// fraction of that capacity reserved for the hot region (must be in
// [0, 1)). Every value is considered size 1.
func New[K comparable, V any](maxSize int, hotPercent float64) *Cache[K, V] {
	return NewWithSizeFunc[K, V](maxSize, hotPercent, nil)
}

// NewWithSizeFunc is like New but lets the caller supply a per-value size
// hook; a nil hook is equivalent to a constant size of 1.
func NewWithSizeFunc[K comparable, V any](maxSize int, hotPercent float64, sizeOf func(V) int) *Cache[K, V] {
	if sizeOf == nil {
		sizeOf = func(V) int { return 1 }
	}
	c := &Cache[K, V]{
		index:  make(map[K]*node[K, V]),
		sizeOf: sizeOf,
	}
	c.Resize(maxSize, hotPercent)
	return c
}

// Get looks up key, promoting its visit count (without moving it in the
// ring) if present. It never blocks a concurrent Get.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.RLock()
	n, ok := c.index[k]
	if ok {
		n.increaseVisitCount()
	}
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}
	return n.val, true
}

// Put inserts or updates key k with value v. It returns false without
// making any change if v's size exceeds the cache's max size.
//
// If k is already present, the old node is evicted from the ring and the
// new node inherits old.visitCount + 1. Placement of a fresh node follows
// the Hot-End LRU rule: if trimming toward capacity evicted at least one
// node and both heads were already non-nil, the new node becomes the new
// cold-head; otherwise it becomes the new hot-head, stepping cold-head
// back while the hot region exceeds its budget.
func (c *Cache[K, V]) Put(k K, v V) bool {
	sz := c.sizeOf(v)

	c.mu.Lock()
	defer c.mu.Unlock()

	if sz > c.maxSize {
		return false
	}

	newNode := &node[K, V]{key: k, val: v, size: sz}
	newNode.visitCount.Store(1)

	old, existed := c.index[k]
	if existed {
		lastVisit := old.visitCount.Load()
		c.removeNodeLocked(old)
		newNode.visitCount.Store(lastVisit + 1)
	}
	c.index[k] = newNode

	trimmed := false
	if !existed {
		trimmed = c.trimToLocked(c.maxSize - newNode.size)
	}

	if c.hotHead != nil && c.coldHead != nil && trimmed {
		c.insertBefore(newNode, c.coldHead)
		c.coldHead = newNode
		newNode.isCold = true
		c.curSize += newNode.size
		return true
	}

	if c.hotHead != nil {
		c.insertBefore(newNode, c.hotHead)
	} else {
		newNode.next, newNode.prev = newNode, newNode
	}
	isDoubleHead := c.coldHead == c.hotHead

	c.hotHead = newNode
	c.hotSize += newNode.size
	c.curSize += newNode.size

	if c.coldHead == nil {
		if c.curSize > c.maxHotSize {
			c.setNewColdHead(c.hotHead.prev)
		}
	} else if c.hotSize > c.maxHotSize {
		if isDoubleHead && c.coldHead.prev != c.coldHead {
			c.hotSize -= c.coldHead.size
			c.coldHead.isCold = true
		}
		for c.setNewColdHead(c.coldHead.prev) {
			if c.hotSize <= c.maxHotSize {
				break
			}
		}
	}

	return true
}

// Remove deletes key k if present and returns its value.
func (c *Cache[K, V]) Remove(k K) (V, bool) {
	c.mu.Lock()
	n, ok := c.index[k]
	if ok {
		delete(c.index, k)
		n.visitCount.Store(visitPoison)
		if n.prev != nil {
			c.removeNodeLocked(n)
		}
	}
	c.mu.Unlock()

	if !ok {
		var zero V
		return zero, false
	}
	return n.val, true
}

// Resize changes the capacity and hot/cold split. maxSize must be >= 2 and
// hotPercent must be in [0, 1); otherwise Resize panics (a configuration
// error, not a runtime condition callers should recover from). If the
// cache currently holds more than maxSize, it is trimmed down immediately.
func (c *Cache[K, V]) Resize(maxSize int, hotPercent float64) {
	if maxSize < 2 || hotPercent < 0 || hotPercent >= 1 {
		panic("lru: Resize requires maxSize >= 2 and hotPercent in [0, 1)")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.maxSize = maxSize

	mh := int(float64(maxSize) * hotPercent)
	if mh < 1 {
		mh = 1
	}
	if mh > maxSize-1 {
		mh = maxSize - 1
	}
	c.maxHotSize = mh

	if c.curSize > c.maxSize {
		c.trimToLocked(c.maxSize)
	}
}

// TrimTo repeatedly evicts or promotes from the cold-tail until cur size is
// at most target or the cache is empty. It returns true iff at least one
// node was evicted (as opposed to only promoted).
func (c *Cache[K, V]) TrimTo(target int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trimToLocked(target)
}

func (c *Cache[K, V]) trimToLocked(target int) bool {
	removed := false
	for c.curSize > target && c.hotHead != nil {
		coldTail := c.hotHead.prev

		if coldTail.visitCount.Load() >= hotColdBoundary {
			coldTail.visitCount.Store(1)
			c.setNewHotHead(coldTail)
			for c.hotSize > c.maxHotSize {
				if !c.setNewColdHead(c.coldHead.prev) {
					break
				}
			}
			continue
		}

		delete(c.index, coldTail.key)
		c.removeNodeLocked(coldTail)
		removed = true
	}
	return removed
}

// TraverseTrim walks the ring from the cold-tail backward (toward older
// entries), visiting up to maxCount nodes. For each node it invokes cb with
// (key, value); cb returns true to accept removal (the caller — typically
// the tiered cache — is responsible for actually removing the node via
// Remove) or false to retain it. A retained node is re-promoted exactly as
// TrimTo promotes a hot-eligible cold-tail: visit count reset to 1, becomes
// the new hot-head, cold-head steps back while the hot region is over
// budget. TraverseTrim stops early if it revisits the same node (a
// single-node ring). It returns the number of nodes actually visited.
func (c *Cache[K, V]) TraverseTrim(maxCount int, cb func(k K, v V) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hotHead == nil {
		return 0
	}

	n := c.hotHead.prev
	visited := 0

	for visited < maxCount {
		accept := cb(n.key, n.val)
		visited++

		if !accept {
			n.visitCount.Store(1)
			c.setNewHotHead(n)
			for c.hotSize > c.maxHotSize {
				if !c.setNewColdHead(c.coldHead.prev) {
					break
				}
			}
		}

		pre := n.prev
		if pre == n {
			break
		}
		n = pre
	}

	return visited
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index = make(map[K]*node[K, V])
	c.setNewHotHead(nil)
	c.setNewColdHead(nil)
	c.curSize = 0
	c.hotSize = 0
}

// Size returns the current total size.
func (c *Cache[K, V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.curSize
}

// MaxSize returns the configured capacity.
func (c *Cache[K, V]) MaxSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxSize
}

// MaxHotSize returns the configured hot-region budget.
func (c *Cache[K, V]) MaxHotSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxHotSize
}

// HotSize returns the current hot-region size.
func (c *Cache[K, V]) HotSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hotSize
}

// -------------------- internals (mu held) --------------------

func (c *Cache[K, V]) insertBefore(n, exist *node[K, V]) {
	n.next = exist
	n.prev = exist.prev
	exist.prev.next = n
	exist.prev = n
}

func (c *Cache[K, V]) removeNodeLocked(n *node[K, V]) {
	if n.next == n {
		c.setNewHotHead(nil)
		c.setNewColdHead(nil)
	} else {
		n.next.prev = n.prev
		n.prev.next = n.next
		if c.hotHead == n {
			c.setNewHotHead(n.next)
		}
		if c.coldHead == n {
			c.setNewColdHead(n.next)
		}
	}

	c.curSize -= n.size
	if !n.isCold {
		c.hotSize -= n.size
	}
}

// setNewHotHead installs node as the new hot-head. If node was cold, the
// hot region absorbs its size and it is reclassified as hot.
func (c *Cache[K, V]) setNewHotHead(n *node[K, V]) {
	if n != nil {
		if n.isCold {
			c.hotSize += n.size
		}
		n.isCold = false
	}
	c.hotHead = n
}

// setNewColdHead installs node as the new cold-head. It returns false (and
// leaves the hot/cold classification untouched) if node is nil or equals
// hot-head, since a single-node ring has no cold region of its own.
func (c *Cache[K, V]) setNewColdHead(n *node[K, V]) bool {
	c.coldHead = n

	if n == nil || c.hotHead == n {
		return false
	}

	if !n.isCold {
		c.hotSize -= n.size
	}
	n.isCold = true

	return true
}
