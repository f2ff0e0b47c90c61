package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheOperations tracks cache operations by tier, operation and status
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trace_cache_operations_total",
			Help: "The total number of cache operations by tier, operation and status",
		},
		[]string{"tier", "operation", "status"},
	)

	// CacheOperationDuration tracks the duration of cache operations
	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trace_cache_operation_duration_seconds",
			Help:    "The duration of cache operations by tier and operation",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		},
		[]string{"tier", "operation"},
	)

	// CacheHits tracks cache hits across all tiers
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trace_cache_hits_total",
			Help: "The total number of cache hits",
		},
	)

	// CacheMisses tracks cache misses across all tiers
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trace_cache_misses_total",
			Help: "The total number of cache misses",
		},
	)

	// CacheEntries tracks the current number of entries per tier
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trace_cache_entries",
			Help: "The current number of cache entries per tier",
		},
		[]string{"tier"},
	)

	// RouteOutcomes tracks routing outcomes by path and source
	RouteOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trace_route_outcomes_total",
			Help: "The total number of routing outcomes by path and source",
		},
		[]string{"path", "source"},
	)

	// RouteLatency tracks routing decision latency by path
	RouteLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trace_route_latency_seconds",
			Help:    "The latency of routing decisions by path",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
		},
		[]string{"path"},
	)

	// PatternMatches tracks pattern matcher identifications by algorithm
	PatternMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trace_pattern_matches_total",
			Help: "The total number of pattern matcher identifications by algorithm",
		},
		[]string{"algorithm"},
	)

	// TemplatesLoaded tracks the number of algorithm templates currently loaded
	TemplatesLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trace_templates_loaded",
			Help: "The number of algorithm templates currently loaded",
		},
	)

	// TemplatesSkipped tracks malformed template documents skipped at load time
	TemplatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trace_templates_skipped_total",
			Help: "The total number of malformed template documents skipped at load time",
		},
	)
)

// RecordCacheOperation records a cache operation with duration and status
func RecordCacheOperation(tier, operation, status string, duration float64) {
	CacheOperations.WithLabelValues(tier, operation, status).Inc()
	CacheOperationDuration.WithLabelValues(tier, operation).Observe(duration)
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHits.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMisses.Inc()
}

// UpdateCacheEntries sets the current entry count for a tier
func UpdateCacheEntries(tier string, count int) {
	CacheEntries.WithLabelValues(tier).Set(float64(count))
}

// RecordRouteOutcome records a routing decision outcome with its latency
func RecordRouteOutcome(path, source string, seconds float64) {
	RouteOutcomes.WithLabelValues(path, source).Inc()
	RouteLatency.WithLabelValues(path).Observe(seconds)
}

// RecordPatternMatch records a pattern matcher identification
func RecordPatternMatch(algorithm string) {
	PatternMatches.WithLabelValues(algorithm).Inc()
}

// UpdateTemplatesLoaded sets the number of loaded algorithm templates
func UpdateTemplatesLoaded(count int) {
	TemplatesLoaded.Set(float64(count))
}

// RecordTemplateSkipped records a malformed template document skipped during load
func RecordTemplateSkipped() {
	TemplatesSkipped.Inc()
}
