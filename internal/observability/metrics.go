package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the domain collectors registered for one server instance.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// EngagementEvents counts views, comments, and likes by kind.
	EngagementEvents *prometheus.CounterVec
	// PostMutations counts post create/update/delete operations.
	PostMutations *prometheus.CounterVec
	// SearchQueries counts list queries, split by whether a term was supplied.
	SearchQueries *prometheus.CounterVec
	// DatabaseQueryLatency records repository latency by operation and table.
	DatabaseQueryLatency *prometheus.HistogramVec
	// RedisErrors counts Redis errors by operation type.
	RedisErrors *prometheus.CounterVec
}

// NewMetrics registers the domain collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EngagementEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tours_engagement_events_total",
			Help: "Total engagement events recorded by kind",
		}, []string{"kind"}),
		PostMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tours_post_mutations_total",
			Help: "Total post mutations by operation",
		}, []string{"operation"}),
		SearchQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tours_search_queries_total",
			Help: "Total list queries by mode",
		}, []string{"mode"}),
		DatabaseQueryLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tours_database_query_latency_seconds",
			Help:    "Database query latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "table"}),
		RedisErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tours_redis_error_rate_total",
			Help: "Total number of Redis errors by operation type",
		}, []string{"operation"}),
	}
}

// Engagement kinds.
const (
	EngagementView    = "view"
	EngagementComment = "comment"
	EngagementLike    = "like"
)

// RecordEngagement increments the engagement counter for kind.
func (m *Metrics) RecordEngagement(kind string) {
	if m == nil {
		return
	}
	m.EngagementEvents.WithLabelValues(kind).Inc()
}

// RecordPostMutation increments the mutation counter for operation.
func (m *Metrics) RecordPostMutation(operation string) {
	if m == nil {
		return
	}
	m.PostMutations.WithLabelValues(operation).Inc()
}

// RecordSearch counts a list query. Queries with a term count as "search".
func (m *Metrics) RecordSearch(term string) {
	if m == nil {
		return
	}
	mode := "browse"
	if term != "" {
		mode = "search"
	}
	m.SearchQueries.WithLabelValues(mode).Inc()
}

// RecordRedisError counts a failed Redis operation.
func (m *Metrics) RecordRedisError(operation string) {
	if m == nil {
		return
	}
	m.RedisErrors.WithLabelValues(operation).Inc()
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *Metrics) TrackQuery(operation, table string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
