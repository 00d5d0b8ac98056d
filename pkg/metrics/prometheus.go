// Package metrics provides Prometheus metrics for the resirel analyzer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for the analyzer.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Pipeline progress
	charactersScanned    prometheus.Counter
	sweepLevelsCompleted prometheus.Counter
	resilientCharacters  prometheus.Gauge
	edgesBuilt           *prometheus.CounterVec

	// Stage timings (seconds)
	repositoryLoadDuration  prometheus.Histogram
	achievementScanDuration prometheus.Histogram
	edgeBuildDuration       prometheus.Histogram

	// Resilience memo cache
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
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
		namespace:        "resirel",
		subsystem:        "analysis",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
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

	m.charactersScanned = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "characters_scanned_total",
		Help:      "Characters scanned for propagation edges.",
	})

	m.sweepLevelsCompleted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sweep_levels_completed_total",
		Help:      "Target levels the sweep has finished.",
	})

	m.resilientCharacters = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resilient_characters",
		Help:      "Characters with an achievement date at the current target level.",
	})

	m.edgesBuilt = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "edges_built_total",
		Help:      "Propagation edges built, labeled by target bucket.",
	}, []string{"bucket"})

	m.repositoryLoadDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_load_duration_seconds",
		Help:      "Time to load the season dataset into memory.",
		Buckets:   m.histogramBuckets,
	})

	m.achievementScanDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "achievement_scan_duration_seconds",
		Help:      "Time to compute achievement dates for all characters.",
		Buckets:   m.histogramBuckets,
	})

	m.edgeBuildDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "edge_build_duration_seconds",
		Help:      "Time to build propagation edges for one target level.",
		Buckets:   m.histogramBuckets,
	})

	m.cacheHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resilience_cache_hits_total",
		Help:      "Resilience memo cache hits.",
	})

	m.cacheMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resilience_cache_misses_total",
		Help:      "Resilience memo cache misses.",
	})
}

// Package-level helpers operating on the global manager.

// RecordCharacterScanned increments the scanned-characters counter.
func RecordCharacterScanned() {
	globalManager.charactersScanned.Inc()
}

// RecordLevelCompleted increments the completed sweep-levels counter.
func RecordLevelCompleted() {
	globalManager.sweepLevelsCompleted.Inc()
}

// UpdateResilientCharacters sets the resilient-characters gauge.
func UpdateResilientCharacters(count int) {
	globalManager.resilientCharacters.Set(float64(count))
}

// RecordEdges adds to the edge counter for the given bucket
// ("resilient" or "non_resilient").
func RecordEdges(bucket string, count int) {
	globalManager.edgesBuilt.WithLabelValues(bucket).Add(float64(count))
}

// ObserveRepositoryLoad records the dataset load duration in seconds.
func ObserveRepositoryLoad(seconds float64) {
	globalManager.repositoryLoadDuration.Observe(seconds)
}

// ObserveAchievementScan records the achievement-date scan duration in seconds.
func ObserveAchievementScan(seconds float64) {
	globalManager.achievementScanDuration.Observe(seconds)
}

// ObserveEdgeBuild records the edge-build duration in seconds.
func ObserveEdgeBuild(seconds float64) {
	globalManager.edgeBuildDuration.Observe(seconds)
}

// RecordCacheHit increments the memo cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the memo cache miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// Handler returns an http.Handler serving the custom registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
