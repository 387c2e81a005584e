// Package key implements the cache's composite lookup key: an ordered
// sequence of opaque sub-identifiers whose canonical string form drives
// both equality and hashing.
package key

import (
	"fmt"
	"strings"
	"sync"
)

// box holds the original, typed sub-identifiers behind a pointer so that
// Key itself stays a comparable (string, pointer) pair — required so Key
// can be used directly as a Go map key and as a generic `comparable` type
// parameter (see lru.Cache[K comparable, V any]).
type box struct{ parts []any }

// intern maps a canonical string to the single box ever built for it, so
// that two Keys constructed from equal sub-identifiers always compare ==
// (same canon string AND same box pointer), satisfying "equal keys must
// have equal hashes" structurally rather than by convention. The table
// grows for the lifetime of the process, proportional to the number of
// distinct keys ever constructed — acceptable because a cache's key space
// is itself bounded by the domain objects it indexes.
var intern sync.Map // map[string]*box

// Key is an immutable, ordered sequence of opaque sub-identifiers. Two keys
// are equal iff the textual forms of their sub-identifiers, comma-joined in
// order, are equal.
type Key struct {
	canon string
	b     *box
}

// New builds a Key from an ordered list of opaque sub-identifiers.
// At least one sub-identifier must be supplied.
func New(ids ...any) Key {
	if len(ids) == 0 {
		panic("key: New requires at least one sub-identifier")
	}

	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(textOf(id))
	}
	canon := sb.String()

	parts := make([]any, len(ids))
	copy(parts, ids)

	actual, _ := intern.LoadOrStore(canon, &box{parts: parts})
	return Key{canon: canon, b: actual.(*box)}
}

func textOf(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

// At returns the i-th sub-identifier. It panics if i is out of range,
// exactly as indexing the underlying slice would.
func (k Key) At(i int) any { return k.b.parts[i] }

// Len returns the number of sub-identifiers.
func (k Key) Len() int { return len(k.b.parts) }

// String returns the canonical comma-joined textual form used for equality
// and hashing.
func (k Key) String() string { return k.canon }
