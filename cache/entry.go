package cache

import "sync/atomic"

// entry is the value type stored in the hard-tier lru.Cache and pointed to
// from the weak tier. payload holds the cached value itself; lastRefresh
// holds, in milliseconds since the Unix epoch, the time the entry entered
// the hard tier or last had a refresh requested, so Get can tell whether
// an entry is due for OnNeedRefresh without taking the cache lock.
type entry[V any] struct {
	payload     V
	lastRefresh atomic.Int64
}

func newEntry[V any](payload V, at int64) *entry[V] {
	e := &entry[V]{payload: payload}
	e.lastRefresh.Store(at)
	return e
}
