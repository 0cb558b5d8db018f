package webapi

import (
	"time"

	"github.com/spboyer/probscore/internal/metrics"
	"github.com/spboyer/probscore/internal/models"
	"github.com/spboyer/probscore/internal/panel"
)

// RunSummary is the API response for a single run in the list.
type RunSummary struct {
	ID        string    `json:"id"`
	Suite     string    `json:"suite"`
	Outcome   string    `json:"outcome"`
	Total     int       `json:"total"`
	Passed    int       `json:"passed"`
	Failed    int       `json:"failed"`
	Errors    int       `json:"errors"`
	Rows      int       `json:"rows"`
	Duration  float64   `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
}

// SummaryResponse is the aggregate response across stored runs.
type SummaryResponse struct {
	TotalRuns    int     `json:"totalRuns"`
	TotalMetrics int     `json:"totalMetrics"`
	PassRate     float64 `json:"passRate"`
	AvgDuration  float64 `json:"avgDuration"`
}

// MetricsResponse lists the metric types the server can evaluate.
type MetricsResponse struct {
	Metrics []metrics.Info `json:"metrics"`
}

// EvaluateRequest carries a suite together with the panels it runs on.
type EvaluateRequest struct {
	models.Suite
	Observations *panel.Observations `json:"observations"`
	Forecast     *panel.Forecast     `json:"forecast"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
