package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "autoeval"

// Scoring pipeline Prometheus metrics.
var (
	ScoreRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_requests_total",
			Help:      "Scoring requests by outcome and failing stage",
		},
		[]string{"outcome", "stage"}, // stage is "none" on success
	)

	ScoreDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_duration_seconds",
			Help:      "End-to-end scoring duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	ScoreSimilarity = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_similarity",
			Help:      "Distribution of comparator similarity",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 9),
		},
	)

	TempCleanupFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "temp_cleanup_failures_total",
			Help:      "Temporary artifacts that could not be removed",
		},
	)

	OCRRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ocr_requests_total",
			Help:      "Text extraction calls by engine and status",
		},
		[]string{"engine", "status"},
	)

	OCRDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ocr_duration_seconds",
			Help:      "Text extraction duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"engine"},
	)
)

var scoringOnce sync.Once

// RegisterScoringMetrics registers scoring and OCR metrics. Safe to call more than once.
func RegisterScoringMetrics() {
	scoringOnce.Do(func() {
		prometheus.MustRegister(
			ScoreRequestsTotal,
			ScoreDuration,
			ScoreSimilarity,
			TempCleanupFailuresTotal,
			OCRRequestsTotal,
			OCRDuration,
		)
	})
}
