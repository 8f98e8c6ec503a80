// Package metrics provides Prometheus metrics for the championship scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Core scoring metrics
	resultsScored    prometheus.Counter
	racesRescored    prometheus.Counter
	rescoreErrors    prometheus.Counter
	rescoreDuration  prometheus.Histogram
	ageGradeFallback prometheus.Counter

	// Standings metrics
	standingsComputed *prometheus.CounterVec
	standingsDuration prometheus.Histogram

	// Import metrics
	importRows *prometheus.CounterVec

	// Store gauges
	storeRunners prometheus.Gauge
	storeRaces   prometheus.Gauge
	storeResults prometheus.Gauge
	bestNSetting prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "champ",
		subsystem:        "scoring",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.resultsScored = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_scored_total",
		Help:      "Total number of race results that received updated scores.",
	})
	m.racesRescored = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "races_rescored_total",
		Help:      "Total number of full race rescore operations.",
	})
	m.rescoreErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rescore_errors_total",
		Help:      "Total number of failed race rescore operations.",
	})
	m.rescoreDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rescore_duration_ms",
		Help:      "Duration of full race rescore operations in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
	m.ageGradeFallback = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "age_factor_fallbacks_total",
		Help:      "Times the reference table had no age row and fell back to factor 1.0.",
	})

	m.standingsComputed = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "standings_computed_total",
		Help:      "Total standings computations by axis.",
	}, []string{"axis"})
	m.standingsDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "standings_duration_ms",
		Help:      "Duration of standings computations in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.importRows = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "import_rows_total",
		Help:      "Bulk import rows by outcome (imported, skipped, invalid).",
	}, []string{"outcome"})

	m.storeRunners = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_runners",
		Help:      "Number of runners in the record store.",
	})
	m.storeRaces = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_races",
		Help:      "Number of races in the record store.",
	})
	m.storeResults = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_results",
		Help:      "Number of results in the record store.",
	})
	m.bestNSetting = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "best_n_setting",
		Help:      "Current championship best-N setting.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.systemMemoryUsage = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_bytes",
		Help:      "Allocated heap bytes.",
	})
	m.systemGoroutineCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Number of live goroutines.",
	})
}

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers recording through the global manager.

func RecordResultsScored(n int) { globalManager.resultsScored.Add(float64(n)) }
func RecordRaceRescored()       { globalManager.racesRescored.Inc() }
func RecordRescoreError()       { globalManager.rescoreErrors.Inc() }
func RecordRescoreDuration(ms float64) {
	globalManager.rescoreDuration.Observe(ms)
}
func RecordAgeFactorFallback() { globalManager.ageGradeFallback.Inc() }

func RecordStandingsComputed(axis string) {
	globalManager.standingsComputed.WithLabelValues(axis).Inc()
}
func RecordStandingsDuration(ms float64) {
	globalManager.standingsDuration.Observe(ms)
}

func RecordImportRow(outcome string) {
	globalManager.importRows.WithLabelValues(outcome).Inc()
}

func UpdateStoreRunners(n int) { globalManager.storeRunners.Set(float64(n)) }
func UpdateStoreRaces(n int)   { globalManager.storeRaces.Set(float64(n)) }
func UpdateStoreResults(n int) { globalManager.storeResults.Set(float64(n)) }
func UpdateBestNSetting(n int) { globalManager.bestNSetting.Set(float64(n)) }

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}
func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}
func UpdateSystemGoroutineCount(n int) {
	globalManager.systemGoroutineCount.Set(float64(n))
}
