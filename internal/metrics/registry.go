package metrics

import (
	"fmt"
	"maps"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spboyer/probscore/internal/panel"
)

// Info describes a metric type for listings.
type Info struct {
	Type           Type           `json:"type"`
	Representation panel.Kind     `json:"representation"`
	LowerIsBetter  bool           `json:"lower_is_better"`
	Selector       string         `json:"selector"`
	Defaults       map[string]any `json:"defaults"`
}

// Types returns every registered metric type.
func Types() []Type {
	return []Type{
		TypePinballLoss,
		TypeEmpiricalCoverage,
		TypeConstraintViolation,
		TypeIntervalWidth,
	}
}

// Describe returns the listing entry of a metric type.
func Describe(t Type) (Info, error) {
	m, err := NewDefault(t)
	if err != nil {
		return Info{}, err
	}
	selector := "coverage"
	if t == TypePinballLoss {
		selector = "alpha"
	}
	return Info{
		Type:           t,
		Representation: m.Representation(),
		LowerIsBetter:  m.LowerIsBetter(),
		Selector:       selector,
		Defaults:       m.Params(),
	}, nil
}

// Create builds a metric of the given type from loosely typed parameters,
// as found in suite files and API requests. Strings convert to numbers and
// booleans, and a single level converts to a one-element selector. Unknown
// parameter names are rejected.
func Create(t Type, name string, params map[string]any) (Metric, error) {
	switch t {
	case TypePinballLoss:
		args := PinballLossArgs{Options: DefaultOptions()}
		if err := decodeParams(t, params, &args); err != nil {
			return nil, err
		}
		if name != "" {
			args.Name = name
		}
		return NewPinballLoss(args)
	case TypeEmpiricalCoverage, TypeConstraintViolation, TypeIntervalWidth:
		args := IntervalArgs{Options: DefaultOptions()}
		if err := decodeParams(t, params, &args); err != nil {
			return nil, err
		}
		if name != "" {
			args.Name = name
		}
		switch t {
		case TypeEmpiricalCoverage:
			return NewEmpiricalCoverage(args)
		case TypeConstraintViolation:
			return NewConstraintViolation(args)
		default:
			return NewIntervalWidth(args)
		}
	default:
		return nil, fmt.Errorf("%w: '%s' is not a valid metric type", ErrInvalidParam, t)
	}
}

// NewDefault returns a ready-to-use metric with default parameters.
func NewDefault(t Type) (Metric, error) {
	return Create(t, "", nil)
}

// Reconfigure returns a new metric of the same type and name with overrides
// applied on top of the current parameters. The original is not modified.
func Reconfigure(m Metric, overrides map[string]any) (Metric, error) {
	params := m.Params()
	maps.Copy(params, overrides)
	return Create(m.Type(), m.Name(), params)
}

func decodeParams(t Type, params map[string]any, out any) error {
	if len(params) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidParam, t, err)
	}
	return nil
}
