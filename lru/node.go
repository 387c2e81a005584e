package lru

import "github.com/andrz/tieredlru/internal/util"

// visitPoison marks a node as removed; it prevents a concurrent reader's
// CAS loop in Get from resurrecting a node that is being unlinked.
const visitPoison = -1

// hotColdBoundary is the visit count at which a cold node earns promotion
// to the hot region, either via Get-driven traffic observed during a trim
// pass or via TrimTo's own cold-tail inspection.
const hotColdBoundary = 2

// node is an intrusive, doubly-linked ring element. It carries its own
// size, visit count, and hot/cold classification so that TrimTo and
// TraverseTrim can make eviction/promotion decisions without consulting
// the index.
type node[K comparable, V any] struct {
	key K
	val V

	size int

	// visitCount starts at 1. Get increments it (CAS loop, poison-aware).
	// Put on an existing key inherits old.visitCount + 1. Remove sets it
	// to visitPoison. Promotion (TrimTo / TraverseTrim) resets it to 1.
	// Padded to a cache line: under read-heavy load many goroutines CAS
	// this field concurrently, and an unpadded layout would let it share
	// a cache line with a neighboring node's own hot counter.
	visitCount util.PaddedAtomicInt64

	isCold bool

	prev, next *node[K, V]
}

// increaseVisitCount increments the node's visit count unless it has
// already been poisoned by a concurrent Remove. Safe under Cache's read
// lock: multiple readers may race the CAS, but only one increment wins per
// observed value, and a poisoned node is never resurrected.
func (n *node[K, V]) increaseVisitCount() {
	for {
		cur := n.visitCount.Load()
		if cur < 0 {
			return
		}
		if n.visitCount.CompareAndSwap(cur, cur+1) {
			return
		}
	}
}
