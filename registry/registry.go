// Package registry is the process-wide directory of Tiered caches,
// keyed by a reflect.Type token in place of an explicit name: each
// distinct pointee type T may have at most one registered cache at a
// time.
package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/andrz/tieredlru/cache"
)

var (
	mu    sync.Mutex
	byTok = map[reflect.Type]any{} // reflect.Type -> *cache.Tiered[T]
)

func tokenFor[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Build constructs and registers a Tiered[T] cache. It panics if a cache
// for T has already been built, mirroring the registry's "build once,
// remove before rebuilding" invariant.
func Build[T any](opts cache.Options[T]) *cache.Tiered[T] {
	tok := tokenFor[T]()

	mu.Lock()
	defer mu.Unlock()

	if _, exists := byTok[tok]; exists {
		panic(fmt.Sprintf("registry: a cache for %s already exists, remove it before building again", tok))
	}

	c := cache.New[T](opts)
	byTok[tok] = c
	return c
}

// Get returns the registered Tiered[T] cache, if any.
func Get[T any]() (*cache.Tiered[T], bool) {
	tok := tokenFor[T]()

	mu.Lock()
	defer mu.Unlock()

	v, ok := byTok[tok]
	if !ok {
		return nil, false
	}
	return v.(*cache.Tiered[T]), true
}

// Remove unregisters and releases the Tiered[T] cache, if one exists. It
// reports whether a cache was found and removed.
func Remove[T any]() bool {
	tok := tokenFor[T]()

	mu.Lock()
	v, ok := byTok[tok]
	if ok {
		delete(byTok, tok)
	}
	mu.Unlock()

	if !ok {
		return false
	}
	v.(*cache.Tiered[T]).Release()
	return true
}
