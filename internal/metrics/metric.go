// Package metrics implements probabilistic forecast metrics: pinball loss for
// quantile forecasts, and empirical coverage, constraint violation and
// interval width for interval forecasts.
//
// Every metric computes a LossMatrix of per-element losses and reduces it
// with the shared aggregation rules, so all metrics honour the same
// Options and return the same result shapes.
package metrics

import (
	"github.com/spboyer/probscore/internal/panel"
)

// Type identifies a metric implementation.
type Type string

const (
	TypePinballLoss         Type = "pinball_loss"
	TypeEmpiricalCoverage   Type = "empirical_coverage"
	TypeConstraintViolation Type = "constraint_violation"
	TypeIntervalWidth       Type = "interval_width"
)

// ErrValidation and ErrShapeMismatch are the panel errors metrics surface.
var (
	ErrValidation    = panel.ErrValidation
	ErrShapeMismatch = panel.ErrShapeMismatch
)

// Metric is the interface for all probabilistic metrics.
type Metric interface {
	// Name returns the identifier used in results.
	Name() string

	// Type returns the metric implementation.
	Type() Type

	// Representation is the forecast kind the metric scores natively.
	Representation() panel.Kind

	// LowerIsBetter reports the direction of the score.
	LowerIsBetter() bool

	// Options returns the aggregation settings.
	Options() Options

	// Params returns the full configuration, suitable for Reconfigure.
	Params() map[string]any

	// Evaluate scores the forecast, reducing over time.
	Evaluate(obs *panel.Observations, fc *panel.Forecast) (*Score, error)

	// EvaluateByIndex scores the forecast, keeping the time axis.
	EvaluateByIndex(obs *panel.Observations, fc *panel.Forecast) (*IndexedScore, error)
}

type lossFunc func(obs *panel.Observations, fc *panel.Forecast) (*LossMatrix, error)

// base carries what every metric shares: naming, options and the two
// evaluation entry points over a metric-specific loss function.
type base struct {
	name   string
	opts   Options
	losses lossFunc
}

func (b *base) Name() string     { return b.name }
func (b *base) Options() Options { return b.opts }

func (b *base) Evaluate(obs *panel.Observations, fc *panel.Forecast) (*Score, error) {
	lm, err := b.losses(obs, fc)
	if err != nil {
		return nil, err
	}
	return Aggregate(lm, b.opts), nil
}

func (b *base) EvaluateByIndex(obs *panel.Observations, fc *panel.Forecast) (*IndexedScore, error) {
	lm, err := b.losses(obs, fc)
	if err != nil {
		return nil, err
	}
	return AggregateByIndex(lm, b.opts), nil
}

func (b *base) params() map[string]any {
	return map[string]any{
		"score_average": b.opts.ScoreAverage,
		"multioutput":   string(b.opts.Multioutput),
	}
}

// observedColumn fetches the realized values of a forecast variable. Align
// guarantees presence.
func observedColumn(obs *panel.Observations, variable string) []float64 {
	col, _ := obs.Column(variable)
	return col
}
