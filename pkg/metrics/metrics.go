// Package metrics exposes Prometheus instrumentation for endpoint queries,
// the response cache and view loads.
//
// All recording methods are safe to call on a nil *Metrics, so components
// accept an optional collector without guarding every call site.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "datamap"

// Query kinds and outcome labels.
const (
	KindConstruct = "construct"
	KindSelect    = "select"

	StatusSuccess = "success"
	StatusError   = "error"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Metrics holds the collectors registered on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	queriesTotal   *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	triplesFetched prometheus.Histogram
	cacheRequests  *prometheus.CounterVec
	loadsTotal     *prometheus.CounterVec
	loadDuration   *prometheus.HistogramVec
}

// New creates a collector set on a fresh registry, including the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total number of SPARQL requests sent to an endpoint",
		},
		[]string{"kind", "status"},
	)

	m.queryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of SPARQL requests including response decoding",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"kind"},
	)

	m.triplesFetched = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "triples_fetched",
			Help:      "Number of triples returned by CONSTRUCT queries",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		},
	)

	m.cacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Response cache lookups by result",
		},
		[]string{"result"},
	)

	m.loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Total number of view loads",
		},
		[]string{"view", "status"},
	)

	m.loadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of view loads from query synthesis to projection",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"view"},
	)

	m.registry.MustRegister(
		m.queriesTotal,
		m.queryDuration,
		m.triplesFetched,
		m.cacheRequests,
		m.loadsTotal,
		m.loadDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// RecordQuery records one endpoint request.
func (m *Metrics) RecordQuery(kind string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(kind, status(err)).Inc()
	m.queryDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordTriples records the size of a CONSTRUCT result.
func (m *Metrics) RecordTriples(count int) {
	if m == nil {
		return
	}
	m.triplesFetched.Observe(float64(count))
}

// RecordCache records a cache lookup.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

// RecordLoad records a view load.
func (m *Metrics) RecordLoad(view string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.loadsTotal.WithLabelValues(view, status(err)).Inc()
	m.loadDuration.WithLabelValues(view).Observe(duration.Seconds())
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}
