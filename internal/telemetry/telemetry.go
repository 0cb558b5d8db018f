// Package telemetry exposes Prometheus collectors for metric evaluations
// and the HTTP API.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// UnknownMetric labels evaluations whose metric could not be constructed.
const UnknownMetric = "unknown"

var (
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "probscore_evaluations_total",
			Help: "Total metric evaluations by metric type and outcome",
		},
		[]string{"metric", "status"},
	)

	EvaluationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "probscore_evaluation_latency_seconds",
			Help:    "Metric evaluation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"metric"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "probscore_http_requests_total",
			Help: "Total API requests by route and status code",
		},
		[]string{"route", "code"},
	)

	PanelRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "probscore_panel_rows",
			Help:    "Number of time points per evaluated panel",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)

// ObserveEvaluation records one finished metric evaluation.
func ObserveEvaluation(metric, status string, elapsed time.Duration) {
	EvaluationsTotal.WithLabelValues(metric, status).Inc()
	EvaluationLatency.WithLabelValues(metric).Observe(elapsed.Seconds())
}
