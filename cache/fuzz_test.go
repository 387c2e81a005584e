//go:build go1.18

package cache

import (
	"strings"
	"testing"

	"github.com/andrz/tieredlru/key"
)

// Fuzz basic Get/PutIfAbsent semantics under arbitrary string keys.
// Guards against panics and ensures identity and presence invariants hold.
func FuzzTiered_GetPutIfAbsent(f *testing.F) {
	f.Add("")
	f.Add("a")
	f.Add("αβγ")
	f.Add("emoji🙂")
	f.Add(strings.Repeat("x", 1024))

	f.Fuzz(func(t *testing.T, raw string) {
		const limit = 1 << 12
		if len(raw) > limit {
			raw = raw[:limit]
		}

		ctrl := &countingController{}
		c := New[string](Options[string]{
			Controller:  ctrl,
			MinHardSize: 8,
			Scheduler:   &fakeScheduler{},
		})
		t.Cleanup(c.Release)

		k := key.New(raw)

		v1 := c.Get(k)
		v2 := c.Get(k)
		if v1 != v2 {
			t.Fatalf("repeated Get for the same key must return the same pointer")
		}
		if *v1 != raw {
			t.Fatalf("Create should have built a value keyed on %q, got %q", raw, *v1)
		}

		alt := "replacement"
		v3 := c.PutIfAbsent(k, &alt)
		if v3 != v1 {
			t.Fatalf("PutIfAbsent on an already-present key must return the existing pointer")
		}

		c.TrimHard()
		c.TrimWeak()

		v4 := c.Get(k)
		if *v4 != raw {
			t.Fatalf("value must survive a trim pass, got %q", *v4)
		}
	})
}
