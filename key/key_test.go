package key

import "testing"

func TestNew_CanonicalStringAndEquality(t *testing.T) {
	t.Parallel()

	a := New("user", 42, "profile")
	b := New("user", 42, "profile")

	if a != b {
		t.Fatalf("expected equal keys built from equal sub-identifiers, got %q vs %q", a, b)
	}
	if a.String() != "user,42,profile" {
		t.Fatalf("unexpected canonical form: %q", a.String())
	}
}

func TestNew_DifferentOrderIsDifferentKey(t *testing.T) {
	t.Parallel()

	a := New("x", "y")
	b := New("y", "x")

	if a == b {
		t.Fatal("expected sub-identifier order to matter")
	}
}

func TestAt_ReturnsOriginalTypedValue(t *testing.T) {
	t.Parallel()

	k := New("shard", 7, true)

	if got := k.At(1); got != 7 {
		t.Fatalf("At(1) = %v, want 7", got)
	}
	if got := k.At(2); got != true {
		t.Fatalf("At(2) = %v, want true", got)
	}
	if k.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", k.Len())
	}
}

func TestAt_OutOfRangePanics(t *testing.T) {
	t.Parallel()

	k := New("only")

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-range At")
		}
	}()
	_ = k.At(5)
}

func TestKey_UsableAsMapKey(t *testing.T) {
	t.Parallel()

	m := map[Key]int{}
	k1 := New("a", "b")
	k2 := New("a", "b")

	m[k1] = 1
	if v, ok := m[k2]; !ok || v != 1 {
		t.Fatalf("expected equal keys to collide in a map, got %v, %v", v, ok)
	}
}
