package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "galaxia"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Upstream fetch metrics.
	FetchRequests  *prometheus.CounterVec   // labels: source, outcome={success,error,fallback}
	FetchDuration  *prometheus.HistogramVec // labels: source
	FetchDiscarded *prometheus.CounterVec   // labels: source, reason={stale,closed}
	BreakerState   *prometheus.GaugeVec     // labels: upstream; 0 closed, 1 half-open, 2 open

	// Polling metrics.
	PollTicks *prometheus.CounterVec // labels: poller

	// Reverse geocoding cache.
	GeocodeCache *prometheus.CounterVec // labels: result={hit,miss}

	// Chat assistant.
	ChatMessages *prometheus.CounterVec // labels: outcome={accepted,rejected,failed,busy}

	// ISS tracker and its sinks.
	TrackerRunning     prometheus.Gauge
	SnapshotsPublished *prometheus.CounterVec // labels: sink
	WebsocketClients   prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.FetchDiscarded,
		m.BreakerState,
		m.PollTicks,
		m.GeocodeCache,
		m.ChatMessages,
		m.TrackerRunning,
		m.SnapshotsPublished,
		m.WebsocketClients,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Upstream fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		FetchDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_discarded_total",
			Help:      "Responses dropped before reaching a cell's state.",
		}, []string{"source", "reason"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_breaker_state",
			Help:      "Circuit breaker state per upstream (0 closed, 1 half-open, 2 open).",
		}, []string{"upstream"}),
		PollTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_total",
			Help:      "Poller invocations by poller name.",
		}, []string{"poller"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Reverse geocoding cache lookups by result.",
		}, []string{"result"}),
		ChatMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat submissions by outcome.",
		}, []string{"outcome"}),
		TrackerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracker_running",
			Help:      "1 when the ISS tracker is active, 0 when shut down.",
		}),
		SnapshotsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "ISS snapshots handed to each sink.",
		}, []string{"sink"}),
		WebsocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected live-stream clients.",
		}),
	}
}
