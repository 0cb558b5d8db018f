// Package panel holds the observation and forecast tables that probabilistic
// metrics consume, and the canonical quantile and interval views derived
// from them.
package panel

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation reports a malformed panel or a score selector that the
	// panel cannot satisfy.
	ErrValidation = errors.New("validation error")

	// ErrShapeMismatch reports observations and forecasts that do not line up
	// on the time index or on the set of variables.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Kind tags the representation a forecast panel was produced in.
type Kind string

const (
	KindQuantiles Kind = "pred_quantiles"
	KindIntervals Kind = "pred_interval"
)

func (k Kind) String() string {
	return string(k)
}

// Side is the bound of a prediction interval a column holds.
type Side string

const (
	SideLower Side = "lower"
	SideUpper Side = "upper"
)

// Observations are realized values, one column per variable.
type Observations struct {
	Index     []string    `json:"index"`
	Variables []string    `json:"variables"`
	Values    [][]float64 `json:"values"` // [variable][time]
}

// NewSeries builds single-variable observations.
func NewSeries(name string, index []string, values []float64) *Observations {
	return &Observations{
		Index:     index,
		Variables: []string{name},
		Values:    [][]float64{values},
	}
}

// Len returns the number of time points.
func (o *Observations) Len() int {
	return len(o.Index)
}

// Column returns the values of a variable.
func (o *Observations) Column(name string) ([]float64, bool) {
	for i, v := range o.Variables {
		if v == name {
			return o.Values[i], true
		}
	}
	return nil, false
}

// Validate checks that every column spans the whole index and that
// variable names are unique.
func (o *Observations) Validate() error {
	if o == nil {
		return fmt.Errorf("%w: observations are nil", ErrValidation)
	}
	if len(o.Values) != len(o.Variables) {
		return fmt.Errorf("%w: %d variables but %d value columns", ErrValidation, len(o.Variables), len(o.Values))
	}
	seen := make(map[string]bool, len(o.Variables))
	for i, name := range o.Variables {
		if seen[name] {
			return fmt.Errorf("%w: duplicate observed variable %q", ErrValidation, name)
		}
		seen[name] = true
		if len(o.Values[i]) != len(o.Index) {
			return fmt.Errorf("%w: variable %q has %d values, index has %d", ErrValidation, name, len(o.Values[i]), len(o.Index))
		}
	}
	return nil
}

// Column is one forecast column. Quantile panels set Alpha; interval panels
// set Coverage and Side.
type Column struct {
	Variable string    `json:"variable"`
	Alpha    float64   `json:"alpha,omitempty"`
	Coverage float64   `json:"coverage,omitempty"`
	Side     Side      `json:"side,omitempty"`
	Values   []float64 `json:"values"`
}

// Forecast is a quantile or interval forecast panel sharing the time index
// of the observations it is scored against.
type Forecast struct {
	Kind    Kind     `json:"kind"`
	Index   []string `json:"index"`
	Columns []Column `json:"columns"`
}

// Len returns the number of forecast rows.
func (f *Forecast) Len() int {
	return len(f.Index)
}

// Variables returns the forecast variables in first-appearance order.
func (f *Forecast) Variables() []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range f.Columns {
		if !seen[c.Variable] {
			seen[c.Variable] = true
			out = append(out, c.Variable)
		}
	}
	return out
}

// Validate checks the structural invariants of the panel: a known kind,
// columns spanning the index, unique quantile levels per variable and
// exactly one lower and one upper bound per interval.
func (f *Forecast) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: forecast is nil", ErrValidation)
	}
	if len(f.Columns) == 0 {
		return fmt.Errorf("%w: forecast has no columns", ErrValidation)
	}
	for _, c := range f.Columns {
		if len(c.Values) != len(f.Index) {
			return fmt.Errorf("%w: column %s has %d values, index has %d", ErrValidation, c.label(f.Kind), len(c.Values), len(f.Index))
		}
	}

	switch f.Kind {
	case KindQuantiles:
		return f.validateQuantiles()
	case KindIntervals:
		return f.validateIntervals()
	default:
		return fmt.Errorf("%w: unknown forecast kind %q", ErrValidation, f.Kind)
	}
}

func (f *Forecast) validateQuantiles() error {
	type key struct {
		variable string
		level    float64
	}
	seen := make(map[key]bool)
	for _, c := range f.Columns {
		if c.Alpha < 0 || c.Alpha > 1 {
			return fmt.Errorf("%w: quantile level %v of %q outside [0, 1]", ErrValidation, c.Alpha, c.Variable)
		}
		k := key{c.Variable, RoundLevel(c.Alpha)}
		if seen[k] {
			return fmt.Errorf("%w: duplicate quantile level %v for %q", ErrValidation, c.Alpha, c.Variable)
		}
		seen[k] = true
	}
	return nil
}

func (f *Forecast) validateIntervals() error {
	type key struct {
		variable string
		coverage float64
	}
	sides := make(map[key][2]int)
	bounds := make(map[key][2][]float64)
	var order []key
	for _, c := range f.Columns {
		if c.Coverage < 0 || c.Coverage > 1 {
			return fmt.Errorf("%w: coverage %v of %q outside [0, 1]", ErrValidation, c.Coverage, c.Variable)
		}
		k := key{c.Variable, RoundLevel(c.Coverage)}
		n, ok := sides[k]
		if !ok {
			order = append(order, k)
		}
		b := bounds[k]
		switch c.Side {
		case SideLower:
			n[0]++
			b[0] = c.Values
		case SideUpper:
			n[1]++
			b[1] = c.Values
		default:
			return fmt.Errorf("%w: column %s has invalid side %q", ErrValidation, c.label(f.Kind), c.Side)
		}
		sides[k] = n
		bounds[k] = b
	}
	for _, k := range order {
		if n := sides[k]; n[0] != 1 || n[1] != 1 {
			return fmt.Errorf("%w: coverage %v of %q needs exactly one lower and one upper bound, got %d and %d",
				ErrValidation, k.coverage, k.variable, n[0], n[1])
		}
		lower, upper := bounds[k][0], bounds[k][1]
		for t := range lower {
			if lower[t] > upper[t] {
				return fmt.Errorf("%w: coverage %v of %q at %s: lower bound %v above upper bound %v",
					ErrValidation, k.coverage, k.variable, f.Index[t], lower[t], upper[t])
			}
			// a zero-coverage interval is a point forecast at the median
			if k.coverage == 0 && lower[t] != upper[t] {
				return fmt.Errorf("%w: coverage 0 of %q at %s: bounds %v and %v differ",
					ErrValidation, k.variable, f.Index[t], lower[t], upper[t])
			}
		}
	}
	return nil
}

func (c Column) label(kind Kind) string {
	if kind == KindIntervals {
		return fmt.Sprintf("%s/%v/%s", c.Variable, c.Coverage, c.Side)
	}
	return fmt.Sprintf("%s/%v", c.Variable, c.Alpha)
}
