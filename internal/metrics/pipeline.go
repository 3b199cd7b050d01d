package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragsearch",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	StageDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragsearch",
			Name:      "stage_degraded_total",
			Help:      "Optional pipeline stages skipped after a failure",
		},
		[]string{"stage"},
	)

	PagesFetchedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ragsearch",
			Name:      "pages_fetched_total",
			Help:      "Pages fetched successfully for content enrichment",
		},
	)

	PageFetchErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ragsearch",
			Name:      "page_fetch_errors_total",
			Help:      "Page fetches that failed and yielded empty content",
		},
	)
)

// RegisterPipelineMetrics registers pipeline metrics explicitly (no init()).
func RegisterPipelineMetrics() {
	prometheus.MustRegister(
		StageDuration,
		StageDegradedTotal,
		PagesFetchedTotal,
		PageFetchErrorsTotal,
	)
}
