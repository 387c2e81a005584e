package cache

import (
	"time"

	"github.com/andrz/tieredlru/internal/clock"
)

// defaultMinHardSize is the hard tier's starting capacity when Options
// leaves MinHardSize unset. The hard tier grows by 1.5x on demand beyond
// this floor and never shrinks below it during a trim pass.
const defaultMinHardSize = 64

// defaultExpireTime is how long after its last refresh an entry may be
// read before OnNeedRefresh is posted for it.
const defaultExpireTime = 5 * time.Minute

// Options configures a Tiered cache at construction time.
type Options[T any] struct {
	// Controller supplies the Create/OnNeedRefresh/CanValueBeTrimmed
	// hooks. Required; New panics if nil.
	Controller Controller[T]

	// MinHardSize is the hard tier's floor capacity. Zero selects
	// defaultMinHardSize.
	MinHardSize int

	// MaxHardSize caps the hard tier's growth-on-demand. Zero means
	// unbounded growth (subject only to available memory); once set and
	// reached, Put falls back to ordinary lru.Cache eviction instead of
	// growing further.
	MaxHardSize int

	// ExpireTime is how long after its last refresh an entry may be read
	// before a refresh is requested. Nil selects defaultExpireTime. A non-nil value <= 0
	// disables expiry-driven refresh entirely.
	ExpireTime *time.Duration

	// Metrics receives cache-level observability events. Nil selects
	// NoopMetrics.
	Metrics Metrics

	// Logger receives diagnostic trim and tier-resize logging. Nil selects
	// a no-op logger.
	Logger Logger

	// Scheduler drives the periodic hard/weak trim tasks. Nil selects a
	// time.AfterFunc-backed scheduler.
	Scheduler Scheduler

	// Clock provides the current time for expiry bookkeeping. Nil
	// selects clock.Real.
	Clock clock.Clock
}

func (o Options[T]) expireTime() time.Duration {
	if o.ExpireTime == nil {
		return defaultExpireTime
	}
	return *o.ExpireTime
}

func (o Options[T]) minHardSize() int {
	if o.MinHardSize <= 0 {
		return defaultMinHardSize
	}
	return o.MinHardSize
}

func (o Options[T]) metrics() Metrics {
	if o.Metrics == nil {
		return NoopMetrics{}
	}
	return o.Metrics
}

func (o Options[T]) logger() Logger {
	if o.Logger == nil {
		return noopLogger{}
	}
	return o.Logger
}

func (o Options[T]) scheduler() Scheduler {
	if o.Scheduler == nil {
		return timerScheduler{}
	}
	return o.Scheduler
}

func (o Options[T]) clock() clock.Clock {
	if o.Clock == nil {
		return clock.Real
	}
	return o.Clock
}
