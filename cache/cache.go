package cache

import (
	"sync"
	"time"

	"github.com/andrz/tieredlru/internal/refreshgate"
	"github.com/andrz/tieredlru/key"
	"github.com/andrz/tieredlru/lru"
	"github.com/andrz/tieredlru/weakref"
)

const (
	trimHardInterval    = 90 * time.Second
	trimWeakInterval    = 270 * time.Second
	trimWeakMaxInterval = 360 * time.Second

	trimHardMaxCount = 1000
	trimWeakMaxCount = 2000

	sizeIncreaseStep = 1.5

	hardHotPercent = 0.75
	weakHotPercent = 0.6

	// trimThresholdPercent is the fraction of a tier's hot-region budget
	// a trim pass aims to shrink down to.
	trimThresholdPercent = 0.75
)

// weakInitSizeFactor sets the weak tier's starting capacity as a
// multiple of the hard tier's, so the weak tier comfortably absorbs a
// burst of demotions before it needs to grow itself.
const weakInitSizeFactor = 8

// Tiered is a two-tier object cache keyed by key.Key and holding *T
// values. The hard tier keeps strong references in a capacity that grows
// on demand (up to MaxHardSize, when set); the weak tier keeps
// weak.Pointer references to every value TrimHard demotes from the hard
// tier, so a value already reachable
// elsewhere in the program is recovered instead of rebuilt.
type Tiered[T any] struct {
	opts Options[T]

	mu   sync.RWMutex
	hard *lru.Cache[key.Key, *entry[T]]
	weak *lru.Cache[key.Key, weakref.Ref[T]]

	hardInitSize int
	weakInitSize int

	lastWeakTrim int64 // clock.NowMillis() at the last non-empty trimWeak pass

	refreshing *refreshgate.Gate[key.Key]

	schedMu        sync.Mutex
	cancelHardTrim func()
	cancelWeakTrim func()
	closed         bool
}

// New constructs a Tiered cache. It panics if opts.Controller is nil.
func New[T any](opts Options[T]) *Tiered[T] {
	if opts.Controller == nil {
		panic("cache: Options.Controller must not be nil")
	}

	hardInit := opts.minHardSize()
	weakInit := hardInit * weakInitSizeFactor

	t := &Tiered[T]{
		opts:         opts,
		hard:         lru.New[key.Key, *entry[T]](hardInit, hardHotPercent),
		weak:         lru.New[key.Key, weakref.Ref[T]](weakInit, weakHotPercent),
		hardInitSize: hardInit,
		weakInitSize: weakInit,
		lastWeakTrim: opts.clock().NowMillis(),
		refreshing:   refreshgate.New[key.Key](),
	}
	t.startTrimTasks()
	return t
}

// PutIfAbsent inserts value for k if k is absent from both tiers, and
// returns the value now resident for k: either the one just inserted, or
// the one a concurrent caller won the race to insert (recovered from the
// weak tier if still live).
func (t *Tiered[T]) PutIfAbsent(k key.Key, value *T) *T {
	t.mu.RLock()
	if e, ok := t.hard.Get(k); ok {
		t.mu.RUnlock()
		return &e.payload
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.hard.Get(k); ok {
		return &e.payload
	}

	if r, ok := t.weak.Remove(k); ok {
		if v := r.Resolve(); v != nil {
			t.opts.metrics().Promote()
			return &t.putToHardLocked(k, v).payload
		}
		t.opts.metrics().Reclaimed()
	}

	return &t.putToHardLocked(k, value).payload
}

// Get returns the value for k, recovering it from the weak tier or
// constructing it via Controller.Create if it is absent from both.
func (t *Tiered[T]) Get(k key.Key) *T {
	now := t.opts.clock().NowMillis()

	t.mu.RLock()
	if e, ok := t.hard.Get(k); ok {
		t.mu.RUnlock()
		t.opts.metrics().Hit()
		t.touchAndMaybeRefresh(k, e, now)
		return &e.payload
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.hard.Get(k); ok {
		t.opts.metrics().Hit()
		t.touchAndMaybeRefresh(k, e, now)
		return &e.payload
	}

	if r, ok := t.weak.Remove(k); ok {
		if v := r.Resolve(); v != nil {
			t.opts.metrics().Hit()
			t.opts.metrics().Promote()
			promoted := t.putToHardLocked(k, v)
			t.touchAndMaybeRefresh(k, promoted, now)
			return &promoted.payload
		}
		t.opts.metrics().Reclaimed()
	}

	t.opts.metrics().Miss()
	v := t.opts.Controller.Create(k)
	created := t.putToHardLocked(k, v)
	t.touchAndMaybeRefresh(k, created, now)
	return &created.payload
}

// touchAndMaybeRefresh checks whether an entry has gone stale since its
// last refresh and, if so, advances lastRefresh to now and asks the
// controller to refresh it on a background task. The timestamp is only
// ever moved forward on the stale branch: swapping it in on every hit
// would reset the baseline on each access and a key read more often than
// expire would never be seen as stale, no matter how long it has
// actually gone without a real refresh.
func (t *Tiered[T]) touchAndMaybeRefresh(k key.Key, e *entry[T], now int64) {
	expire := t.opts.expireTime()
	if expire <= 0 {
		return
	}
	prev := e.lastRefresh.Load()
	if now-prev <= expire.Milliseconds() {
		return
	}
	if !e.lastRefresh.CompareAndSwap(prev, now) {
		return
	}
	if !t.refreshing.Enter(k) {
		return
	}
	go func() {
		defer t.refreshing.Leave(k)
		t.opts.Controller.OnNeedRefresh(k, &e.payload)
	}()
}

// putToHardLocked inserts v into the hard tier, growing its capacity by
// sizeIncreaseStep if it is full and below MaxHardSize, and returns the
// entry now canonical for k. Once a value is stored in the hard tier it
// lives inside an *entry[T]; every later lookup, promotion, or weak
// reference for k must resolve to that same entry so identity stays
// consistent across tiers, never the caller's original pointer.
// Caller holds t.mu for writing.
func (t *Tiered[T]) putToHardLocked(k key.Key, v *T) *entry[T] {
	now := t.opts.clock().NowMillis()
	e := newEntry(*v, now)

	if t.hard.Size()+1 > t.hard.MaxSize() && t.canGrowHardLocked() {
		next := growSize(t.hard.MaxSize())
		if t.opts.MaxHardSize > 0 && next > t.opts.MaxHardSize {
			next = t.opts.MaxHardSize
		}
		if next > t.hard.MaxSize() {
			t.hard.Resize(next, hardHotPercent)
			t.opts.logger().Printf("cache: hard tier resized to %d", next)
		}
	}

	if !t.hard.Put(k, e) {
		// lru.Cache.Put rejects only a value larger than the tier's whole
		// capacity; a full tier whose growth MaxHardSize caps is still
		// accepted, with Put evicting from its own cold tail. Trim and
		// retry once.
		t.hard.TrimTo(t.hard.MaxSize() - 1)
		t.hard.Put(k, e)
	}
	t.opts.metrics().HardSize(t.hard.Size())
	return e
}

func (t *Tiered[T]) canGrowHardLocked() bool {
	return t.opts.MaxHardSize <= 0 || t.hard.MaxSize() < t.opts.MaxHardSize
}

func growSize(current int) int {
	next := int(float64(current) * sizeIncreaseStep)
	if next <= current {
		next = current + 1
	}
	return next
}

// Clear removes every entry from both tiers.
func (t *Tiered[T]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hard.Clear()
	t.weak.Clear()
}

// Release stops this cache's background trim tasks and clears both
// tiers.
func (t *Tiered[T]) Release() {
	t.Clear()

	t.schedMu.Lock()
	defer t.schedMu.Unlock()
	if t.cancelHardTrim != nil {
		t.cancelHardTrim()
	}
	if t.cancelWeakTrim != nil {
		t.cancelWeakTrim()
	}
	t.closed = true
}

func (t *Tiered[T]) startTrimTasks() {
	sched := t.opts.scheduler()

	var scheduleHard, scheduleWeak func()
	scheduleHard = func() {
		t.schedMu.Lock()
		if t.closed {
			t.schedMu.Unlock()
			return
		}
		t.cancelHardTrim = sched.PostDelayed(func() {
			t.TrimHard()
			scheduleHard()
		}, trimHardInterval)
		t.schedMu.Unlock()
	}
	scheduleWeak = func() {
		t.schedMu.Lock()
		if t.closed {
			t.schedMu.Unlock()
			return
		}
		t.cancelWeakTrim = sched.PostDelayed(func() {
			t.TrimWeak()
			scheduleWeak()
		}, trimWeakInterval)
		t.schedMu.Unlock()
	}
	scheduleHard()
	scheduleWeak()
}

// TrimHard shrinks the hard tier back toward its hot-region budget,
// demoting cold entries to the weak tier unless the controller asks to
// retain them. It only acts once the hard tier has grown past
// hardInitSize: a tier that never grew past its starting capacity has
// nothing worth reclaiming.
func (t *Tiered[T]) TrimHard() {
	start := t.opts.clock().NowMillis()

	t.mu.Lock()

	maxSize := t.hard.MaxSize()
	if maxSize <= t.hardInitSize {
		t.mu.Unlock()
		return
	}

	curSize := t.hard.Size()
	threshold := int(float64(t.hard.MaxHotSize()) * trimThresholdPercent)
	maxTrimCount := min(curSize-threshold, trimHardMaxCount)

	if maxTrimCount <= 0 {
		t.mu.Unlock()
		return
	}

	var demoted []key.Key
	visited := t.hard.TraverseTrim(maxTrimCount, func(k key.Key, e *entry[T]) bool {
		if !t.opts.Controller.CanValueBeTrimmed(k, &e.payload) {
			return false
		}
		demoted = append(demoted, k)
		return true
	})
	// TraverseTrim only classifies accepted nodes; removal from the hard
	// tier and insertion into the weak tier happen here, after
	// traversal, since the hard tier's own lock is already held for the
	// walk's duration.
	for _, k := range demoted {
		e, ok := t.hard.Remove(k)
		if !ok {
			continue
		}
		t.demoteToWeakLocked(k, &e.payload)
	}

	curSize = t.hard.Size()
	if curSize <= threshold {
		shrunk := max(t.hard.MaxHotSize(), t.hardInitSize)
		t.hard.Resize(shrunk, hardHotPercent)
	}

	hardSize := t.hard.Size()
	t.mu.Unlock()

	t.opts.metrics().HardSize(hardSize)
	t.opts.metrics().TrimDuration("hard", time.Duration(t.opts.clock().NowMillis()-start)*time.Millisecond)
	t.opts.logger().Printf("cache: trimHard visited=%d demoted=%d hardSize=%d", visited, len(demoted), hardSize)
}

// demoteToWeakLocked moves a hard-tier value into the weak tier, growing
// the weak tier by sizeIncreaseStep first if it is full. Caller holds
// t.mu for writing.
func (t *Tiered[T]) demoteToWeakLocked(k key.Key, v *T) {
	if t.weak.Size()+1 > t.weak.MaxSize() {
		next := growSize(t.weak.MaxSize())
		t.weak.Resize(next, weakHotPercent)
		t.opts.logger().Printf("cache: weak tier resized to %d", next)
	}
	t.weak.Put(k, weakref.New(v))
	t.opts.metrics().Demote()
}

// TrimWeak discards weak-tier entries whose reference has already been
// reclaimed by the garbage collector. A live reference is never moved
// back to the hard tier during this pass: reversing tiers mid-walk would
// corrupt the traversal the same way it would for the hard tier's own
// trim. It only acts once the weak tier has grown past weakInitSize. If
// the tier is at or below its trim threshold, the pass is skipped unless
// it is non-empty and trimWeakMaxInterval has elapsed since the last
// sweep, since weak references become collectible asynchronously with
// the GC and a purely size-triggered check can starve for a long time.
func (t *Tiered[T]) TrimWeak() {
	start := t.opts.clock().NowMillis()

	t.mu.Lock()

	maxSize := t.weak.MaxSize()
	if maxSize <= t.weakInitSize {
		t.mu.Unlock()
		return
	}

	curSize := t.weak.Size()
	threshold := int(float64(t.weak.MaxHotSize()) * trimThresholdPercent)
	maxTrimCount := min(curSize-threshold, trimWeakMaxCount)

	now := t.opts.clock().NowMillis()
	if maxTrimCount <= 0 {
		if now-t.lastWeakTrim < trimWeakMaxInterval.Milliseconds() || curSize <= 0 {
			t.mu.Unlock()
			return
		}
		maxTrimCount = maxSize - t.weak.MaxHotSize()
	}

	t.lastWeakTrim = now

	var reclaimedKeys []key.Key
	visited := t.weak.TraverseTrim(maxTrimCount, func(k key.Key, r weakref.Ref[T]) bool {
		if r.Resolve() != nil {
			return false
		}
		reclaimedKeys = append(reclaimedKeys, k)
		return true
	})
	// TraverseTrim only classifies reclaimed refs for removal; remove
	// them from the weak tier here, after traversal released its lock.
	for _, k := range reclaimedKeys {
		t.weak.Remove(k)
	}
	reclaimed := len(reclaimedKeys)

	curSize = t.weak.Size()
	if curSize <= threshold {
		shrunk := max(t.weak.MaxHotSize(), t.weakInitSize)
		t.weak.Resize(shrunk, weakHotPercent)
	}

	weakSize := t.weak.Size()
	t.mu.Unlock()

	for i := 0; i < reclaimed; i++ {
		t.opts.metrics().Reclaimed()
	}
	t.opts.metrics().WeakSize(weakSize)
	t.opts.metrics().TrimDuration("weak", time.Duration(t.opts.clock().NowMillis()-start)*time.Millisecond)
	t.opts.logger().Printf("cache: trimWeak visited=%d reclaimed=%d weakSize=%d", visited, reclaimed, weakSize)
}

// HardSize reports the hard tier's current entry count.
func (t *Tiered[T]) HardSize() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hard.Size()
}

// WeakSize reports the weak tier's current entry count, including
// entries whose reference has already been reclaimed but not yet swept
// by TrimWeak.
func (t *Tiered[T]) WeakSize() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.weak.Size()
}
