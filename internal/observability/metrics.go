package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute is the label value used for requests that do not
// match any registered prefix, ensuring bounded cardinality.
const unmatchedRoute = "unmatched"

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	edgeRedirects       *prometheus.CounterVec
	rateLimitDecisions  *prometheus.CounterVec
	bodyRejections      *prometheus.CounterVec
	storeConnects       *prometheus.CounterVec
	storeConnectLatency prometheus.Histogram
	panicsRecovered     prometheus.Counter
	startTime           prometheus.Gauge
	registry            *prometheus.Registry
}

// NewMetrics creates a new Metrics instance with its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "cookverse"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the pipeline",
		},
		[]string{"method", "route", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets: []float64{
				.001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
		[]string{"method", "route"},
	)

	m.edgeRedirects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "edge",
			Name:      "redirects_total",
			Help: "Total number of requests " +
				"intercepted at the edge",
		},
		[]string{"reason"},
	)

	m.rateLimitDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "decisions_total",
			Help:      "Total number of rate limit decisions",
		},
		[]string{"decision"},
	)

	m.bodyRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "body",
			Name:      "rejected_total",
			Help: "Total number of request bodies " +
				"rejected by the parser",
		},
		[]string{"reason"},
	)

	m.storeConnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "connect_attempts_total",
			Help: "Total number of backing store " +
				"connection attempts",
		},
		[]string{"result"},
	)

	m.storeConnectLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "connect_duration_seconds",
			Help:      "Backing store connection establishment duration",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)

	m.panicsRecovered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panics_recovered_total",
			Help: "Total number of panics recovered " +
				"by the error boundary",
		},
	)

	m.startTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "start_time_seconds",
			Help: "Start time of the execution context " +
				"in unix seconds",
		},
	)

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.edgeRedirects,
		m.rateLimitDecisions,
		m.bodyRejections,
		m.storeConnects,
		m.storeConnectLatency,
		m.panicsRecovered,
		m.startTime,
	)
	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(
		collectors.NewProcessCollector(
			collectors.ProcessCollectorOpts{},
		),
	)

	m.startTime.SetToCurrentTime()

	return m
}

// RecordRequest records a completed HTTP request. The route parameter
// is the matched prefix, never the raw path.
func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = unmatchedRoute
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordEdgeRedirect records an edge interception.
func (m *Metrics) RecordEdgeRedirect(reason string) {
	if m == nil {
		return
	}
	m.edgeRedirects.WithLabelValues(reason).Inc()
}

// RecordRateLimit records a rate limit decision.
func (m *Metrics) RecordRateLimit(allowed bool) {
	if m == nil {
		return
	}
	decision := "allowed"
	if !allowed {
		decision = "rejected"
	}
	m.rateLimitDecisions.WithLabelValues(decision).Inc()
}

// RecordBodyRejection records a rejected request body.
func (m *Metrics) RecordBodyRejection(reason string) {
	if m == nil {
		return
	}
	m.bodyRejections.WithLabelValues(reason).Inc()
}

// RecordStoreConnect records the outcome of a backing store connection attempt.
func (m *Metrics) RecordStoreConnect(err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.storeConnects.WithLabelValues(result).Inc()
	m.storeConnectLatency.Observe(duration.Seconds())
}

// RecordPanic records a recovered panic.
func (m *Metrics) RecordPanic() {
	if m == nil {
		return
	}
	m.panicsRecovered.Inc()
}

// Registry returns the Prometheus registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the metrics in text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: false,
	})
}
