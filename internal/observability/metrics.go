// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthEvents counts register, login and session verification outcomes.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_auth_events_total",
		Help: "Authentication events by type and outcome",
	}, []string{"event", "outcome"})

	// PostMutations counts post creates and updates.
	PostMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_post_mutations_total",
		Help: "Post mutations by operation",
	}, []string{"operation"})

	// UploadBytes counts bytes written to file storage by backend.
	UploadBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_upload_bytes_total",
		Help: "Bytes written to file storage",
	}, []string{"backend"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records datastore latency by operation and collection.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// RecordAuthEvent increments the auth event counter.
func RecordAuthEvent(event, outcome string) {
	AuthEvents.WithLabelValues(event, outcome).Inc()
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
