package models

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spboyer/probscore/internal/statistics"
)

// Status represents the outcome status of a metric or run.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
	StatusError  Status = "error"
	// StatusNA is used in comparison reports when a metric is missing from a report.
	StatusNA Status = "n/a"
)

// EvaluationReport represents the complete result of a suite run
type EvaluationReport struct {
	RunID     string         `json:"run_id"`
	SuiteName string         `json:"suite"`
	Timestamp time.Time      `json:"timestamp"`
	Setup     ReportSetup    `json:"config"`
	Digest    ReportDigest   `json:"summary"`
	Results   []MetricResult `json:"metrics"`
}

// ReportSetup records the inputs of a run.
type ReportSetup struct {
	Observed     string   `json:"observed,omitempty"`
	Forecast     string   `json:"forecast,omitempty"`
	ForecastKind string   `json:"forecast_kind"`
	Rows         int      `json:"rows"`
	Variables    []string `json:"variables"`
	Workers      int      `json:"workers"`
}

type ReportDigest struct {
	Total      int   `json:"total"`
	Passed     int   `json:"passed"`
	Failed     int   `json:"failed"`
	Errors     int   `json:"errors"`
	DurationMs int64 `json:"duration_ms"`
}

// MetricResult is the outcome of one metric of a suite. Value is set for
// scalar results, Entries otherwise. Non-finite numbers are encoded as null.
type MetricResult struct {
	Name          string         `json:"name"`
	Type          string         `json:"type"`
	Status        Status         `json:"status"`
	Error         string         `json:"error,omitempty"`
	LowerIsBetter bool           `json:"lower_is_better"`
	Params        map[string]any `json:"params,omitempty"`
	Axis          string         `json:"axis,omitempty"`
	Value         *float64       `json:"value,omitempty"`
	Entries       []Entry        `json:"entries,omitempty"`
	ByIndex       *IndexedValues `json:"by_index,omitempty"`
	// Series is the fully averaged per-time-point series the bootstrap
	// interval was computed from.
	Series []*float64 `json:"series,omitempty"`

	CI     *statistics.ConfidenceInterval `json:"bootstrap_ci,omitempty"`
	Checks []CheckOutcome                 `json:"checks,omitempty"`

	DurationMs int64 `json:"duration_ms"`
}

// Entry is one labelled value of a non-scalar result.
type Entry struct {
	Label    string   `json:"label"`
	Variable string   `json:"variable,omitempty"`
	Score    *float64 `json:"score,omitempty"`
	Value    *float64 `json:"value"`
}

// IndexedValues is the per-time-point frame of a result.
type IndexedValues struct {
	Index   []string     `json:"index"`
	Columns []string     `json:"columns,omitempty"`
	Values  [][]*float64 `json:"values"`
}

// CheckOutcome is the result of one threshold check on one entry.
type CheckOutcome struct {
	Check   string   `json:"check"`
	Target  string   `json:"target,omitempty"`
	Limit   float64  `json:"limit"`
	Actual  *float64 `json:"actual"`
	Passed  bool     `json:"passed"`
	Message string   `json:"message,omitempty"`
}

// Float converts a computed value for JSON, mapping NaN and infinities to nil.
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Floats applies Float to every element.
func Floats(vs []float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = Float(v)
	}
	return out
}

// Numbers applies Number to every element.
func Numbers(vs []*float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = Number(v)
	}
	return out
}

// Number returns the value of a result number, NaN when absent.
func Number(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// Summarize recounts the digest from the results.
func (r *EvaluationReport) Summarize(duration time.Duration) {
	d := ReportDigest{Total: len(r.Results), DurationMs: duration.Milliseconds()}
	for _, res := range r.Results {
		switch res.Status {
		case StatusPassed:
			d.Passed++
		case StatusFailed:
			d.Failed++
		case StatusError:
			d.Errors++
		}
	}
	r.Digest = d
}

// HasFailures reports whether any threshold check failed.
func (r *EvaluationReport) HasFailures() bool {
	return r.Digest.Failed > 0
}

// Result looks up a metric result by name.
func (r *EvaluationReport) Result(name string) (*MetricResult, bool) {
	for i := range r.Results {
		if r.Results[i].Name == name {
			return &r.Results[i], true
		}
	}
	return nil, false
}

// LoadReport reads a report previously written as JSON.
func LoadReport(path string) (*EvaluationReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var report EvaluationReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return &report, nil
}
