// Package prom adapts the cache package's Metrics interface to
// Prometheus counters and gauges via client_golang.
package prom

import (
	"time"

	"github.com/andrz/tieredlru/cache"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements cache.Metrics and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits     prometheus.Counter
	misses   prometheus.Counter
	promotes prometheus.Counter
	demotes  prometheus.Counter
	reclaims prometheus.Counter
	hardSize prometheus.Gauge
	weakSize prometheus.Gauge
	trimSecs *prometheus.HistogramVec
}

// New constructs a Prometheus metrics adapter.
//   - reg:         registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Cache hits",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Cache misses",
			ConstLabels: constLabels,
		}),
		promotes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "promotes_total",
			Help:        "Entries recovered from the weak tier and moved back to the hard tier",
			ConstLabels: constLabels,
		}),
		demotes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "demotes_total",
			Help:        "Entries moved from the hard tier to the weak tier",
			ConstLabels: constLabels,
		}),
		reclaims: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "reclaims_total",
			Help:        "Weak-tier references found collected by the garbage collector",
			ConstLabels: constLabels,
		}),
		hardSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hard_size",
			Help:        "Number of entries resident in the hard tier",
			ConstLabels: constLabels,
		}),
		weakSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "weak_size",
			Help:        "Number of entries resident in the weak tier",
			ConstLabels: constLabels,
		}),
		trimSecs: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "trim_duration_seconds",
				Help:        "Duration of a trim pass by tier",
				ConstLabels: constLabels,
				Buckets:     prometheus.DefBuckets,
			},
			[]string{"tier"},
		),
	}
	reg.MustRegister(a.hits, a.misses, a.promotes, a.demotes, a.reclaims, a.hardSize, a.weakSize, a.trimSecs)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Promote increments the promotion counter.
func (a *Adapter) Promote() { a.promotes.Inc() }

// Demote increments the demotion counter.
func (a *Adapter) Demote() { a.demotes.Inc() }

// Reclaimed increments the garbage-collected-reference counter.
func (a *Adapter) Reclaimed() { a.reclaims.Inc() }

// HardSize updates the hard-tier size gauge.
func (a *Adapter) HardSize(entries int) { a.hardSize.Set(float64(entries)) }

// WeakSize updates the weak-tier size gauge.
func (a *Adapter) WeakSize(entries int) { a.weakSize.Set(float64(entries)) }

// TrimDuration records a trim pass's wall-clock duration under the given
// tier label ("hard" or "weak").
func (a *Adapter) TrimDuration(tier string, d time.Duration) {
	a.trimSecs.WithLabelValues(tier).Observe(d.Seconds())
}

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)
