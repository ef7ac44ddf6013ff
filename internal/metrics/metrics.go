// Package metrics provides Prometheus metrics for quill.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quill"

var (
	// HTTPRequestsTotal counts API requests by route, method and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"route", "method", "code"},
	)

	// HTTPRequestDuration measures request handling time.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// ComputationsTotal counts listing and ranking computations.
	ComputationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computations_total",
			Help:      "Total number of collection views and related-post rankings",
		},
		[]string{"kind"},
	)

	// PoolSize observes the number of posts each computation ran over.
	PoolSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pool_size",
			Help:      "Distribution of post pool sizes",
			Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000, 5000},
		},
		[]string{"kind"},
	)

	// ImportedPostsTotal counts posts stored by feed imports.
	ImportedPostsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imported_posts_total",
			Help:      "Total number of posts stored by feed imports",
		},
	)

	// ImportFailuresTotal counts feed sources that failed to fetch.
	ImportFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_failures_total",
			Help:      "Total number of failed feed source fetches",
		},
	)

	// LastImportTimestamp is the unix time of the last feed import.
	LastImportTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_import_timestamp_seconds",
			Help:      "Unix time of the last completed feed import",
		},
	)

	// CommentsTotal counts submitted comments by outcome.
	CommentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_total",
			Help:      "Total number of submitted comments",
		},
		[]string{"outcome"},
	)
)

// RecordRequest records a handled HTTP request.
func RecordRequest(route, method string, code int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordComputation records a collection view or related ranking.
func RecordComputation(kind string, poolSize int) {
	ComputationsTotal.WithLabelValues(kind).Inc()
	PoolSize.WithLabelValues(kind).Observe(float64(poolSize))
}

// RecordImport records the outcome of one feed import run.
func RecordImport(imported, failed int) {
	ImportedPostsTotal.Add(float64(imported))
	ImportFailuresTotal.Add(float64(failed))
	LastImportTimestamp.SetToCurrentTime()
}

// RecordComment records a comment submission outcome.
func RecordComment(outcome string) {
	CommentsTotal.WithLabelValues(outcome).Inc()
}
