package cache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements Metrics on top of client_golang, following
// the same naming and bucketing conventions as the lock package's.
type PrometheusMetrics struct {
	lookupTotal   *prometheus.CounterVec
	evictionTotal prometheus.Counter
	waitLatencyMS prometheus.Histogram
	entries       prometheus.Gauge
}

// NewPrometheusMetrics registers and returns a Metrics implementation
// backed by the given registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		lookupTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bindingcache_lookup_total",
			Help: "Get calls by outcome (hit, miss, blocked, not_found)",
		}, []string{"outcome"}),
		evictionTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bindingcache_eviction_total",
			Help: "Entries decached by Evict or Remove",
		}),
		waitLatencyMS: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bindingcache_pending_previous_wait_ms",
			Help:    "Time spent awaiting the pendingPrevious interlock (ms)",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bindingcache_entries",
			Help: "Live (non-decached) cache entries",
		}),
	}
	reg.MustRegister(m.lookupTotal, m.evictionTotal, m.waitLatencyMS, m.entries)
	return m
}

func (m *PrometheusMetrics) IncrLookup(hit, miss, blocked bool) {
	outcome := "not_found"
	switch {
	case hit:
		outcome = "hit"
	case miss:
		outcome = "miss"
	case blocked:
		outcome = "blocked"
	}
	m.lookupTotal.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) IncrEviction() { m.evictionTotal.Inc() }

func (m *PrometheusMetrics) ObservePendingPreviousWait(d time.Duration) {
	m.waitLatencyMS.Observe(float64(d.Milliseconds()))
}

func (m *PrometheusMetrics) SetEntries(count int) { m.entries.Set(float64(count)) }
