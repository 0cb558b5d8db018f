package metrics

import (
	"fmt"
	"slices"

	"github.com/spboyer/probscore/internal/panel"
)

// IntervalArgs holds the arguments shared by the interval metrics.
type IntervalArgs struct {
	// Name is the identifier for this metric, used in results and error messages.
	Name    string `mapstructure:"name"`
	Options `mapstructure:",squash"`
	// Coverage restricts scoring to these interval coverages. Empty means
	// every interval in the forecast.
	Coverage []float64 `mapstructure:"coverage"`
}

// intervalScore is the loss of one realized value against one interval.
type intervalScore func(y, lower, upper, coverage float64) float64

// intervalMetric is the shared body of the interval metrics.
type intervalMetric struct {
	base
	coverage []float64
	score    intervalScore
}

func newIntervalMetric(t Type, args IntervalArgs, score intervalScore) (intervalMetric, error) {
	if err := args.Options.Validate(); err != nil {
		return intervalMetric{}, err
	}
	if err := validateLevels("coverage", args.Coverage); err != nil {
		return intervalMetric{}, err
	}
	if args.Name == "" {
		args.Name = string(t)
	}
	return intervalMetric{
		base:     base{name: args.Name, opts: args.Options},
		coverage: slices.Clone(args.Coverage),
		score:    score,
	}, nil
}

func (m *intervalMetric) Representation() panel.Kind { return panel.KindIntervals }

func (m *intervalMetric) Params() map[string]any {
	p := m.params()
	if len(m.coverage) > 0 {
		p["coverage"] = slices.Clone(m.coverage)
	}
	return p
}

func (m *intervalMetric) lossMatrix(obs *panel.Observations, fc *panel.Forecast) (*LossMatrix, error) {
	if err := panel.Align(obs, fc); err != nil {
		return nil, err
	}
	view, err := fc.Intervals()
	if err != nil {
		return nil, err
	}
	if len(m.coverage) > 0 {
		if view, err = view.Select(m.coverage); err != nil {
			return nil, err
		}
	}

	lm := NewLossMatrix(view.Index, view.Variables, view.Coverages)
	losses := make([]float64, len(view.Index))
	for v, name := range view.Variables {
		y := observedColumn(obs, name)
		for s, c := range view.Coverages {
			lower, upper := view.Lower[v][s], view.Upper[v][s]
			for t := range y {
				losses[t] = m.score(y[t], lower[t], upper[t], c)
			}
			lm.Set(v, s, losses)
		}
	}
	return lm, nil
}

func validateLevels(param string, levels []float64) error {
	for _, l := range levels {
		if l < 0 || l > 1 {
			return fmt.Errorf("%w: %s %v outside [0, 1]", ErrInvalidParam, param, l)
		}
	}
	return nil
}
