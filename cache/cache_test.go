package cache

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andrz/tieredlru/key"
	"golang.org/x/sync/errgroup"
)

// fakeClock lets tests control the expiry window deterministically.
type fakeClock struct {
	mu sync.Mutex
	t  int64
}

func (f *fakeClock) NowMillis() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) add(d time.Duration) {
	f.mu.Lock()
	f.t += d.Milliseconds()
	f.mu.Unlock()
}

// fakeScheduler captures posted tasks instead of running them on a timer,
// so trim behavior can be driven explicitly from a test.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []func()
}

func (s *fakeScheduler) PostDelayed(task func(), _ time.Duration) func() {
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
	return func() {}
}

type countingController struct {
	BaseController[string]
	created  atomic.Int64
	refresh  atomic.Int64
	trimmable func(key.Key, *string) bool
}

func (c *countingController) Create(k key.Key) *string {
	c.created.Add(1)
	v := fmt.Sprint(k.At(0))
	return &v
}

func (c *countingController) OnNeedRefresh(key.Key, *string) {
	c.refresh.Add(1)
}

func (c *countingController) CanValueBeTrimmed(k key.Key, v *string) bool {
	if c.trimmable == nil {
		return true
	}
	return c.trimmable(k, v)
}

func newTestCache(ctrl Controller[string]) *Tiered[string] {
	return New[string](Options[string]{
		Controller:  ctrl,
		MinHardSize: 4,
		Scheduler:   &fakeScheduler{},
	})
}

func TestTiered_Get_ConstructsOnFirstMiss(t *testing.T) {
	t.Parallel()

	ctrl := &countingController{}
	c := newTestCache(ctrl)

	v := c.Get(key.New("alice"))
	if *v != "alice" {
		t.Fatalf("got %q", *v)
	}
	if ctrl.created.Load() != 1 {
		t.Fatalf("Create should run once, ran %d times", ctrl.created.Load())
	}

	v2 := c.Get(key.New("alice"))
	if v2 != v {
		t.Fatal("second Get must return the same pointer identity")
	}
	if ctrl.created.Load() != 1 {
		t.Fatal("Create must not run again on hit")
	}
}

func TestTiered_PutIfAbsent_LoserGetsWinnersValue(t *testing.T) {
	t.Parallel()

	c := newTestCache(&countingController{})
	k := key.New("shared")

	a := "first"
	b := "second"
	got1 := c.PutIfAbsent(k, &a)
	got2 := c.PutIfAbsent(k, &b)

	if got1 != got2 {
		t.Fatal("PutIfAbsent must return the same pointer both times")
	}
	if *got1 != "first" {
		t.Fatalf("first writer should win, got %q", *got1)
	}
}

// fillPastInitSize pushes enough distinct keys through Get to force the
// hard tier to grow past its initial capacity at least once, which is
// the precondition TrimHard requires before it will act at all.
func fillPastInitSize(c *Tiered[string], n int) []*string {
	out := make([]*string, n)
	for i := 0; i < n; i++ {
		out[i] = c.Get(key.New(fmt.Sprintf("k%d", i)))
	}
	return out
}

func TestTiered_TrimHard_DemotesColdEntriesThenPromotesOnGet(t *testing.T) {
	t.Parallel()

	ctrl := &countingController{}
	c := newTestCache(ctrl)

	const n = 5 // MinHardSize is 4; this forces one growth step
	keepAlive := fillPastInitSize(c, n)

	if c.HardSize() != n {
		t.Fatalf("all %d entries should still be resident before any trim, got %d", n, c.HardSize())
	}

	c.TrimHard()

	if c.HardSize()+c.WeakSize() != n {
		t.Fatalf("trim must only move entries between tiers, not lose them: hard=%d weak=%d want total=%d",
			c.HardSize(), c.WeakSize(), n)
	}
	if c.WeakSize() == 0 {
		t.Fatal("growing past the initial hard size should trigger at least one demotion")
	}

	for i, v := range keepAlive {
		got := c.Get(key.New(fmt.Sprintf("k%d", i)))
		if got != v {
			t.Fatalf("Get for k%d must preserve pointer identity across tiers", i)
		}
	}
	if ctrl.created.Load() != int64(n) {
		t.Fatalf("Create should have run exactly %d times total, ran %d", n, ctrl.created.Load())
	}
}

func TestTiered_TrimHard_RetainsWhenControllerRefuses(t *testing.T) {
	t.Parallel()

	ctrl := &countingController{trimmable: func(key.Key, *string) bool { return false }}
	c := newTestCache(ctrl)

	const n = 5
	fillPastInitSize(c, n)
	c.TrimHard()

	if c.HardSize() != n {
		t.Fatalf("controller refusal must keep every entry in the hard tier, got %d", c.HardSize())
	}
	if c.WeakSize() != 0 {
		t.Fatal("a fully-retained trim pass must not populate the weak tier")
	}
}

func TestTiered_TrimWeak_SweepsReclaimedReferences(t *testing.T) {
	t.Parallel()

	c := newTestCache(&countingController{})
	const n = 5
	fillPastInitSize(c, n)
	c.TrimHard()

	if c.WeakSize() == 0 {
		t.Fatal("setup should have demoted at least one entry to the weak tier")
	}

	for i := 0; i < 50 && c.WeakSize() > 0; i++ {
		runtime.GC()
		c.TrimWeak()
	}

	if c.WeakSize() != 0 {
		t.Fatal("weak tier should be empty once every reference is reclaimed and swept")
	}
}

func TestTiered_Get_RequestsRefreshPastExpiry(t *testing.T) {
	t.Parallel()

	ctrl := &countingController{}
	clk := &fakeClock{}
	expire := 10 * time.Millisecond
	c := New[string](Options[string]{
		Controller:  ctrl,
		MinHardSize: 4,
		ExpireTime:  &expire,
		Clock:       clk,
		Scheduler:   &fakeScheduler{},
	})

	k := key.New("stale")
	c.Get(k)

	clk.add(100 * time.Millisecond)
	c.Get(k)

	deadline := time.Now().Add(time.Second)
	for ctrl.refresh.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if ctrl.refresh.Load() == 0 {
		t.Fatal("OnNeedRefresh should have been posted after the entry went stale")
	}
}

func TestTiered_Get_FrequentAccessDoesNotResetStaleBaseline(t *testing.T) {
	t.Parallel()

	ctrl := &countingController{}
	clk := &fakeClock{}
	expire := 10 * time.Millisecond
	c := New[string](Options[string]{
		Controller:  ctrl,
		MinHardSize: 4,
		ExpireTime:  &expire,
		Clock:       clk,
		Scheduler:   &fakeScheduler{},
	})

	k := key.New("hot")
	c.Get(k) // constructs, lastRefresh = 0

	// Ten Gets spaced 1ms apart (well under expire) should never touch the
	// refresh baseline: if Get swapped lastRefresh to "now" on every hit,
	// elapsed-since-last-access would always look small and a key read
	// this often would never be seen as stale no matter how much real
	// time has passed since its one true refresh.
	for i := 0; i < 10; i++ {
		clk.add(time.Millisecond)
		c.Get(k)
	}

	if ctrl.refresh.Load() != 0 {
		t.Fatal("OnNeedRefresh should not fire while every gap stays under ExpireTime")
	}

	// Now push clock time far enough past the key's real last refresh
	// (still at 0) that it is genuinely stale.
	clk.add(100 * time.Millisecond)
	c.Get(k)

	deadline := time.Now().Add(time.Second)
	for ctrl.refresh.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if ctrl.refresh.Load() == 0 {
		t.Fatal("OnNeedRefresh should have been posted once real elapsed time exceeded ExpireTime")
	}
}

func TestTiered_ConcurrentGet_IsRaceFree(t *testing.T) {
	c := newTestCache(&countingController{})

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		i := i
		g.Go(func() error {
			for j := 0; j < 200; j++ {
				c.Get(key.New(fmt.Sprintf("k%d", i%8)))
				if j%10 == 0 {
					c.TrimHard()
					c.TrimWeak()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestTiered_Release_StopsBackgroundTasks(t *testing.T) {
	t.Parallel()

	sched := &fakeScheduler{}
	c := New[string](Options[string]{
		Controller:  &countingController{},
		MinHardSize: 4,
		Scheduler:   sched,
	})
	c.Release()

	// A trim task that still fires after Release must not post a successor.
	sched.mu.Lock()
	posted := append([]func(){}, sched.tasks...)
	sched.mu.Unlock()
	for _, task := range posted {
		task()
	}
	sched.mu.Lock()
	after := len(sched.tasks)
	sched.mu.Unlock()
	if after != len(posted) {
		t.Fatalf("trim tasks rescheduled after Release: %d posted, want %d", after, len(posted))
	}

	// Idempotent: a second Release must not panic.
	c.Release()
}

func TestTiered_Clear_EmptiesBothTiers(t *testing.T) {
	t.Parallel()

	c := newTestCache(&countingController{})
	c.Get(key.New("a"))
	c.Get(key.New("b"))
	c.TrimHard()

	c.Clear()

	if c.HardSize() != 0 || c.WeakSize() != 0 {
		t.Fatalf("Clear must empty both tiers, hard=%d weak=%d", c.HardSize(), c.WeakSize())
	}
}
