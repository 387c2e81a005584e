// Package clock provides an injectable time source so trim scheduling and
// expiry windows can be tested deterministically.
package clock

import "time"

// Clock provides the current time in milliseconds since the Unix epoch —
// the unit last_refresh_time is tracked in throughout the cache package.
type Clock interface{ NowMillis() int64 }

type real struct{}

func (real) NowMillis() int64 { return time.Now().UnixMilli() }

// Real is the default Clock, backed by time.Now.
var Real Clock = real{}
