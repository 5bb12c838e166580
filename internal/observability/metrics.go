package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoriesCreated counts persisted stories by kind.
	StoriesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stories_created_total",
		Help: "Total number of stories created",
	}, []string{"kind"})

	// StoryLikeActions counts like/unlike attempts by kind, action and result.
	StoryLikeActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stories_like_actions_total",
		Help: "Total like and unlike attempts by outcome",
	}, []string{"kind", "action", "result"})

	// AdmissionRejections counts creations refused by the per-user window.
	AdmissionRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stories_admission_rejections_total",
		Help: "Total number of story creations rejected by the creation limit",
	}, []string{"kind"})

	// StoriesDeleted counts deletions by kind and whether a moderator performed them.
	StoriesDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stories_deleted_total",
		Help: "Total number of stories deleted",
	}, []string{"kind", "by"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stories_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
