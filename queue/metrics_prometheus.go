package queue

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements Metrics on top of client_golang, following
// the same naming and bucketing conventions as the lock and cache
// packages.
type PrometheusMetrics struct {
	sendTotal        prometheus.Counter
	ackTotal         *prometheus.CounterVec
	reconnectTotal   prometheus.Counter
	peerDownTotal    prometheus.Counter
	requestLatencyMS prometheus.Histogram
	pendingDepth     prometheus.Gauge
	sentDepth        prometheus.Gauge
}

// NewPrometheusMetrics registers and returns a Metrics implementation
// backed by the given registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		sendTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reqqueue_send_total",
			Help: "Request frames written to the socket",
		}),
		ackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reqqueue_ack_total",
			Help: "Acks processed, by outcome",
		}, []string{"outcome"}),
		reconnectTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reqqueue_reconnect_total",
			Help: "Client reconnect attempts",
		}),
		peerDownTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reqqueue_peer_down_total",
			Help: "Times the client declared the peer down",
		}),
		requestLatencyMS: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reqqueue_request_latency_ms",
			Help:    "Time from enqueue to ack (ms)",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		pendingDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reqqueue_pending_depth",
			Help: "Requests awaiting send",
		}),
		sentDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reqqueue_sent_depth",
			Help: "Requests sent but not yet acked",
		}),
	}
	reg.MustRegister(
		m.sendTotal, m.ackTotal, m.reconnectTotal, m.peerDownTotal,
		m.requestLatencyMS, m.pendingDepth, m.sentDepth,
	)
	return m
}

func (m *PrometheusMetrics) IncrSend() { m.sendTotal.Inc() }

func (m *PrometheusMetrics) IncrAck(success, failed, duplicate bool) {
	outcome := "success"
	switch {
	case duplicate:
		outcome = "duplicate"
	case failed:
		outcome = "failed"
	}
	m.ackTotal.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) IncrReconnect() { m.reconnectTotal.Inc() }
func (m *PrometheusMetrics) IncrPeerDown()  { m.peerDownTotal.Inc() }

func (m *PrometheusMetrics) ObserveRequestLatency(d time.Duration) {
	m.requestLatencyMS.Observe(float64(d.Milliseconds()))
}

func (m *PrometheusMetrics) SetPendingDepth(n int) { m.pendingDepth.Set(float64(n)) }
func (m *PrometheusMetrics) SetSentDepth(n int)    { m.sentDepth.Set(float64(n)) }
