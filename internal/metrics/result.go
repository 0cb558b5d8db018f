package metrics

import (
	"fmt"
	"strconv"
)

// Axis describes what the non-time entries of a result are keyed by.
type Axis string

const (
	// AxisNone means a single value (Evaluate) or one value per time point
	// (EvaluateByIndex).
	AxisNone          Axis = "none"
	AxisScore         Axis = "score"
	AxisVariable      Axis = "variable"
	AxisVariableScore Axis = "variable_score"
)

// axisFor maps aggregation options to the axis the result keeps.
func axisFor(opts Options) Axis {
	switch {
	case opts.ScoreAverage && opts.Multioutput == UniformAverage:
		return AxisNone
	case !opts.ScoreAverage && opts.Multioutput == UniformAverage:
		return AxisScore
	case !opts.ScoreAverage && opts.Multioutput == RawValues:
		return AxisVariableScore
	default:
		return AxisVariable
	}
}

// Label identifies one entry of a result. Score holds a quantile level for
// quantile metrics and a coverage for interval metrics.
type Label struct {
	Variable string
	Score    float64
}

// Format renders the label the way the axis keys it.
func (a Axis) Format(l Label) string {
	score := strconv.FormatFloat(l.Score, 'g', -1, 64)
	switch a {
	case AxisScore:
		return score
	case AxisVariable:
		return l.Variable
	case AxisVariableScore:
		return fmt.Sprintf("%s/%s", l.Variable, score)
	default:
		return ""
	}
}

// Score is the time-aggregated result of Evaluate.
type Score struct {
	Axis Axis
	// Value is set when Axis is AxisNone.
	Value  float64
	Labels []Label
	Values []float64
}

// IsScalar reports whether the result is a single value.
func (s *Score) IsScalar() bool {
	return s.Axis == AxisNone
}

// Len returns the number of entries: 1 for a scalar, otherwise the length of
// the series.
func (s *Score) Len() int {
	if s.IsScalar() {
		return 1
	}
	return len(s.Values)
}

// IndexedScore is the per-time-point result of EvaluateByIndex.
type IndexedScore struct {
	Axis  Axis
	Index []string
	// Labels name the frame columns. Empty when Axis is AxisNone, in which
	// case every row holds a single value.
	Labels []Label
	Values [][]float64 // [time][column]
}

// Len returns the number of time points.
func (s *IndexedScore) Len() int {
	return len(s.Index)
}

// IsSeries reports whether the result is one value per time point.
func (s *IndexedScore) IsSeries() bool {
	return s.Axis == AxisNone
}

// Width returns the number of frame columns, 1 for a series.
func (s *IndexedScore) Width() int {
	if s.IsSeries() {
		return 1
	}
	return len(s.Labels)
}

// Column returns column j across all time points.
func (s *IndexedScore) Column(j int) []float64 {
	out := make([]float64, len(s.Values))
	for t, row := range s.Values {
		out[t] = row[j]
	}
	return out
}

// Series returns the per-time values of a series result.
func (s *IndexedScore) Series() []float64 {
	return s.Column(0)
}
