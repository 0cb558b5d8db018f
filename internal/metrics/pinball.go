package metrics

import (
	"slices"

	"github.com/spboyer/probscore/internal/panel"
)

// PinballLossArgs holds the arguments for creating a pinball loss.
type PinballLossArgs struct {
	// Name is the identifier for this metric, used in results and error messages.
	Name    string `mapstructure:"name"`
	Options `mapstructure:",squash"`
	// Alpha restricts scoring to these quantile levels. Empty means every
	// level in the forecast.
	Alpha []float64 `mapstructure:"alpha"`
}

// PinballLoss scores quantile forecasts with the asymmetric check function.
type PinballLoss struct {
	base
	alpha []float64
}

// NewPinballLoss creates a [PinballLoss]. Levels in Alpha must lie in [0, 1];
// whether the forecast carries them is only known at evaluation time.
func NewPinballLoss(args PinballLossArgs) (*PinballLoss, error) {
	if err := args.Options.Validate(); err != nil {
		return nil, err
	}
	if err := validateLevels("alpha", args.Alpha); err != nil {
		return nil, err
	}
	if args.Name == "" {
		args.Name = string(TypePinballLoss)
	}
	m := &PinballLoss{
		base:  base{name: args.Name, opts: args.Options},
		alpha: slices.Clone(args.Alpha),
	}
	m.losses = m.lossMatrix
	return m, nil
}

func (m *PinballLoss) Type() Type                 { return TypePinballLoss }
func (m *PinballLoss) Representation() panel.Kind { return panel.KindQuantiles }
func (m *PinballLoss) LowerIsBetter() bool        { return true }

func (m *PinballLoss) Params() map[string]any {
	p := m.params()
	if len(m.alpha) > 0 {
		p["alpha"] = slices.Clone(m.alpha)
	}
	return p
}

func (m *PinballLoss) lossMatrix(obs *panel.Observations, fc *panel.Forecast) (*LossMatrix, error) {
	if err := panel.Align(obs, fc); err != nil {
		return nil, err
	}
	view, err := fc.Quantiles()
	if err != nil {
		return nil, err
	}
	if len(m.alpha) > 0 {
		if view, err = view.Select(m.alpha); err != nil {
			return nil, err
		}
	}

	lm := NewLossMatrix(view.Index, view.Variables, view.Levels)
	losses := make([]float64, len(view.Index))
	for v, name := range view.Variables {
		y := observedColumn(obs, name)
		for s, alpha := range view.Levels {
			pred := view.Values[v][s]
			for t := range y {
				losses[t] = Pinball(y[t], pred[t], alpha)
			}
			lm.Set(v, s, losses)
		}
	}
	return lm, nil
}

// Pinball is the check function at level alpha for residual y - q. Both
// branches are non-negative: alpha*r for r >= 0 and (alpha-1)*r for r < 0.
func Pinball(y, q, alpha float64) float64 {
	r := y - q
	if r >= 0 {
		return alpha * r
	}
	return (alpha - 1) * r
}
