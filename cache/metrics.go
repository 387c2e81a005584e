package cache

import "time"

// Metrics exposes cache-level observability hooks: hit/miss counters,
// promote/demote/reclaim transitions between tiers, per-tier size
// gauges, and background trim duration.
type Metrics interface {
	Hit()
	Miss()
	// Promote is called each time a weak-tier entry is found live and
	// migrated back to the hard tier.
	Promote()
	// Demote is called each time a hard-tier entry is migrated to the
	// weak tier during trimHard.
	Demote()
	// Reclaimed is called each time a weak-tier reference resolves empty
	// (found during a lookup's weak-tier removal, or during trimWeak).
	Reclaimed()
	HardSize(entries int)
	WeakSize(entries int)
	TrimDuration(tier string, d time.Duration)
}

// NoopMetrics is a drop-in Metrics implementation that does nothing. It is
// the default when no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()                               {}
func (NoopMetrics) Miss()                               {}
func (NoopMetrics) Promote()                            {}
func (NoopMetrics) Demote()                             {}
func (NoopMetrics) Reclaimed()                          {}
func (NoopMetrics) HardSize(int)                        {}
func (NoopMetrics) WeakSize(int)                        {}
func (NoopMetrics) TrimDuration(string, time.Duration)  {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}
