// Package cache implements a two-tier in-process object cache: a hard
// tier of strongly-held entries bounded by a Hot-End LRU policy, and a
// weak tier of weak.Pointer references kept for every value TrimHard
// demotes from the hard tier. A value recovered from the weak tier before the garbage
// collector reclaims it is promoted back to the hard tier instead of
// being rebuilt.
//
// Design
//
//   - Concurrency: a single sync.RWMutex guards both tiers together,
//     since promotion and demotion move an entry between them atomically.
//     Get takes a read lock for the hard-tier fast path and only upgrades
//     to a write lock on miss (weak-tier recovery or construction).
//
//   - Hard tier: github.com/andrz/tieredlru/lru.Cache, sized by
//     Options.MinHardSize and grown by 1.5x on demand up to
//     Options.MaxHardSize (0 = unbounded growth).
//
//   - Weak tier: a second lru.Cache holding weakref.Ref[T] values, sized
//     at 8x MinHardSize and grown by 1.5x on demand. Entries are added by
//     TrimHard (demotion) and removed either by a successful Get/
//     PutIfAbsent (promotion) or by TrimWeak sweeping references the
//     garbage collector has already cleared.
//
//   - Refresh: each entry carries a last-refresh time, set when it enters
//     the hard tier and advanced only when a refresh is requested. Once
//     Get finds it older than Options.ExpireTime, Controller.OnNeedRefresh
//     is posted on a
//     background goroutine, deduplicated per key by internal/refreshgate
//     so a slow refresh does not get re-queued on every subsequent read.
//
//   - Background trimming: TrimHard and TrimWeak each run on a
//     self-rescheduling task posted through Options.Scheduler, mirroring
//     the interval constants in cache.go. Release stops both tasks.
//
// Basic usage
//
//	type user struct{ Name string }
//
//	type userController struct{ cache.BaseController[user] }
//
//	func (userController) Create(k key.Key) *user {
//	    return &user{Name: fmt.Sprint(k.At(0))}
//	}
//
//	c := cache.New[user](cache.Options[user]{Controller: userController{}})
//	u := c.Get(key.New("alice"))
//
// Exporting metrics
//
//	m := prom.New(nil, "tieredlru", "users", nil)
//	c := cache.New[user](cache.Options[user]{Controller: userController{}, Metrics: m})
package cache
