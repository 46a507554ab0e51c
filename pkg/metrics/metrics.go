package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// Database query latency in seconds.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation"}, // operation: leading SQL verb (SELECT, INSERT, ...)
	)

	// Task list cache lookups, partitioned by outcome.
	TaskCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_cache_lookups_total",
			Help: "Task list cache lookups",
		},
		[]string{"outcome"}, // outcome: hit, miss, error
	)

	// Cache invalidations triggered by mutation events.
	CacheInvalidationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidation_total",
			Help: "Cache invalidations by routing key",
		},
		[]string{"routing_key"},
	)

	// Task mutations by kind.
	TaskMutationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_mutation_total",
			Help: "Task mutations by kind",
		},
		[]string{"kind"}, // kind: create, status, update, delete, comment
	)

	// Slow query counter.
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Queries above the slow query threshold",
		},
	)
)

// RecordHTTPRequestDuration records HTTP request latency.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordDBQueryDuration records database query latency.
func RecordDBQueryDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheLookup records a task cache lookup outcome.
func RecordCacheLookup(outcome string) {
	TaskCacheLookups.WithLabelValues(outcome).Inc()
}

// IncrementCacheInvalidation counts an invalidation for a routing key.
func IncrementCacheInvalidation(routingKey string) {
	CacheInvalidationCount.WithLabelValues(routingKey).Inc()
}

// IncrementTaskMutation counts a task mutation.
func IncrementTaskMutation(kind string) {
	TaskMutationCount.WithLabelValues(kind).Inc()
}

// IncrementSlowQuery counts a slow query.
func IncrementSlowQuery() {
	SlowQueryCount.Inc()
}
