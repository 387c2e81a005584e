package cache

import "github.com/andrz/tieredlru/key"

// Controller supplies the per-cache policy hooks the tiered cache
// delegates to at build time: how to construct a value for a previously
// unseen key, what to do when an observed value is stale, and whether a
// value may be migrated out of the hard tier at trim time.
type Controller[T any] interface {
	// Create constructs a new value for a key absent from both tiers.
	// It runs on the calling goroutine while the cache's write lock is
	// held, so it must not block indefinitely or re-enter the cache.
	Create(k key.Key) *T

	// OnNeedRefresh notifies that an entry has exceeded its expiry window
	// since its last refresh. It runs on a background task, after the
	// cache's lock has been released; it must not re-enter the cache that
	// invoked it from the calling goroutine's stack.
	OnNeedRefresh(k key.Key, value *T)

	// CanValueBeTrimmed is consulted during trimHard for each hard-tier
	// candidate. Returning false keeps the entry retained (re-promoted)
	// across as many trim passes as the controller wishes.
	CanValueBeTrimmed(k key.Key, value *T) bool
}

// BaseController supplies the default OnNeedRefresh (a no-op) and
// CanValueBeTrimmed (always trimmable) hooks described above. Embed it in
// a concrete Controller and implement only Create.
type BaseController[T any] struct{}

// OnNeedRefresh is a no-op by default.
func (BaseController[T]) OnNeedRefresh(key.Key, *T) {}

// CanValueBeTrimmed returns true by default: every hard-tier entry may be
// demoted to the weak tier at trim time.
func (BaseController[T]) CanValueBeTrimmed(key.Key, *T) bool { return true }
