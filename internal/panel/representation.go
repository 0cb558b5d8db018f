package panel

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
)

const levelScale = 1e10

// RoundLevel snaps a quantile level or coverage to 10 decimal places so that
// levels derived arithmetically, such as (1-0.9)/2, compare equal to their
// literal spelling.
func RoundLevel(x float64) float64 {
	return math.Round(x*levelScale) / levelScale
}

// CoverageToAlphas maps an interval coverage to the quantile levels of its
// lower and upper bounds.
func CoverageToAlphas(coverage float64) (lower, upper float64) {
	return RoundLevel((1 - coverage) / 2), RoundLevel(1 - (1-coverage)/2)
}

// AlphaToCoverage maps the lower quantile level of a symmetric pair to the
// coverage of the interval the pair spans.
func AlphaToCoverage(alpha float64) float64 {
	return RoundLevel(1 - 2*alpha)
}

// QuantileView is the canonical (variable, level) layout of a forecast.
type QuantileView struct {
	Index     []string
	Variables []string
	Levels    []float64     // ascending, shared by all variables
	Values    [][][]float64 // [variable][level][time]
}

// IntervalView is the canonical (variable, coverage) layout of a forecast.
type IntervalView struct {
	Index     []string
	Variables []string
	Coverages []float64     // ascending, shared by all variables
	Lower     [][][]float64 // [variable][coverage][time]
	Upper     [][][]float64
}

// Quantiles returns the forecast as quantile columns. Interval panels are
// flattened so that every coverage contributes its two bound levels; a
// coverage of zero contributes the single level 0.5.
func (f *Forecast) Quantiles() (*QuantileView, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	variables := f.Variables()
	byVar := make(map[string]map[float64][]float64, len(variables))
	for _, v := range variables {
		byVar[v] = make(map[float64][]float64)
	}

	for _, c := range f.Columns {
		level := RoundLevel(c.Alpha)
		if f.Kind == KindIntervals {
			lo, hi := CoverageToAlphas(c.Coverage)
			level = hi
			if c.Side == SideLower {
				level = lo
			}
		}
		if _, dup := byVar[c.Variable][level]; dup {
			// coverage 0: Validate guarantees both bounds equal the median
			continue
		}
		byVar[c.Variable][level] = c.Values
	}

	levels, err := sharedKeys(variables, byVar)
	if err != nil {
		return nil, err
	}

	view := &QuantileView{
		Index:     f.Index,
		Variables: variables,
		Levels:    levels,
		Values:    make([][][]float64, len(variables)),
	}
	for i, v := range variables {
		view.Values[i] = make([][]float64, len(levels))
		for j, l := range levels {
			view.Values[i][j] = byVar[v][l]
		}
	}
	return view, nil
}

// Intervals returns the forecast as interval bounds. Quantile panels are
// paired around the median: a level a below 0.5 whose mirror 1-a is present
// becomes the interval of coverage 1-2a. The median and unpaired levels are
// dropped, so a median-only panel yields a view with no coverages.
func (f *Forecast) Intervals() (*IntervalView, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	variables := f.Variables()
	type bounds struct{ lower, upper []float64 }
	byVar := make(map[string]map[float64]*bounds, len(variables))
	for _, v := range variables {
		byVar[v] = make(map[float64]*bounds)
	}

	switch f.Kind {
	case KindIntervals:
		for _, c := range f.Columns {
			cov := RoundLevel(c.Coverage)
			b, ok := byVar[c.Variable][cov]
			if !ok {
				b = &bounds{}
				byVar[c.Variable][cov] = b
			}
			if c.Side == SideLower {
				b.lower = c.Values
			} else {
				b.upper = c.Values
			}
		}
	case KindQuantiles:
		levels := make(map[string]map[float64][]float64, len(variables))
		for _, c := range f.Columns {
			if levels[c.Variable] == nil {
				levels[c.Variable] = make(map[float64][]float64)
			}
			levels[c.Variable][RoundLevel(c.Alpha)] = c.Values
		}
		for v, lv := range levels {
			for a, lower := range lv {
				if a >= 0.5 {
					continue
				}
				upper, ok := lv[RoundLevel(1-a)]
				if !ok {
					slog.Debug("Dropping unpaired quantile level", "variable", v, "alpha", a)
					continue
				}
				byVar[v][AlphaToCoverage(a)] = &bounds{lower: lower, upper: upper}
			}
		}
	}

	coverages, err := sharedKeys(variables, byVar)
	if err != nil {
		return nil, err
	}

	view := &IntervalView{
		Index:     f.Index,
		Variables: variables,
		Coverages: coverages,
		Lower:     make([][][]float64, len(variables)),
		Upper:     make([][][]float64, len(variables)),
	}
	for i, v := range variables {
		view.Lower[i] = make([][]float64, len(coverages))
		view.Upper[i] = make([][]float64, len(coverages))
		for j, c := range coverages {
			view.Lower[i][j] = byVar[v][c].lower
			view.Upper[i][j] = byVar[v][c].upper
		}
	}
	return view, nil
}

// Select restricts the view to the requested quantile levels, in the order
// requested.
func (v *QuantileView) Select(alpha []float64) (*QuantileView, error) {
	idx, err := SelectLevels(v.Levels, alpha, "alpha")
	if err != nil {
		return nil, err
	}
	out := &QuantileView{
		Index:     v.Index,
		Variables: v.Variables,
		Levels:    make([]float64, len(idx)),
		Values:    make([][][]float64, len(v.Variables)),
	}
	for j, k := range idx {
		out.Levels[j] = v.Levels[k]
	}
	for i := range v.Variables {
		out.Values[i] = make([][]float64, len(idx))
		for j, k := range idx {
			out.Values[i][j] = v.Values[i][k]
		}
	}
	return out, nil
}

// Select restricts the view to the requested coverages, in the order
// requested.
func (v *IntervalView) Select(coverage []float64) (*IntervalView, error) {
	idx, err := SelectLevels(v.Coverages, coverage, "coverage")
	if err != nil {
		return nil, err
	}
	out := &IntervalView{
		Index:     v.Index,
		Variables: v.Variables,
		Coverages: make([]float64, len(idx)),
		Lower:     make([][][]float64, len(v.Variables)),
		Upper:     make([][][]float64, len(v.Variables)),
	}
	for j, k := range idx {
		out.Coverages[j] = v.Coverages[k]
	}
	for i := range v.Variables {
		out.Lower[i] = make([][]float64, len(idx))
		out.Upper[i] = make([][]float64, len(idx))
		for j, k := range idx {
			out.Lower[i][j] = v.Lower[i][k]
			out.Upper[i][j] = v.Upper[i][k]
		}
	}
	return out, nil
}

// SelectLevels returns the positions of requested within available. Every
// requested level must be present after rounding; repeats are collapsed.
func SelectLevels(available, requested []float64, param string) ([]int, error) {
	idx := make([]int, 0, len(requested))
	for _, r := range requested {
		k := slices.Index(available, RoundLevel(r))
		if k < 0 {
			return nil, fmt.Errorf("%w: %s %v is not among the forecast levels %v", ErrValidation, param, r, available)
		}
		if !slices.Contains(idx, k) {
			idx = append(idx, k)
		}
	}
	return idx, nil
}

// Align checks that observations and forecast share the time index and the
// same set of variables.
func Align(obs *Observations, f *Forecast) error {
	if err := obs.Validate(); err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("%w: forecast is nil", ErrValidation)
	}
	if obs.Len() != f.Len() {
		return fmt.Errorf("%w: %d observed rows, %d forecast rows", ErrShapeMismatch, obs.Len(), f.Len())
	}
	for i := range obs.Index {
		if obs.Index[i] != f.Index[i] {
			return fmt.Errorf("%w: index differs at row %d (%q vs %q)", ErrShapeMismatch, i, obs.Index[i], f.Index[i])
		}
	}

	forecastVars := f.Variables()
	for _, v := range obs.Variables {
		if !slices.Contains(forecastVars, v) {
			return fmt.Errorf("%w: observed variable %q has no forecast columns", ErrShapeMismatch, v)
		}
	}
	for _, v := range forecastVars {
		if !slices.Contains(obs.Variables, v) {
			return fmt.Errorf("%w: forecast variable %q is not observed", ErrShapeMismatch, v)
		}
	}
	return nil
}

// sharedKeys returns the sorted keys every variable carries, failing when
// variables disagree.
func sharedKeys[T any](variables []string, byVar map[string]map[float64]T) ([]float64, error) {
	var keys []float64
	for i, v := range variables {
		k := make([]float64, 0, len(byVar[v]))
		for level := range byVar[v] {
			k = append(k, level)
		}
		slices.Sort(k)
		if i == 0 {
			keys = k
			continue
		}
		if !slices.Equal(keys, k) {
			return nil, fmt.Errorf("%w: variable %q has levels %v, %q has %v", ErrShapeMismatch, variables[0], keys, v, k)
		}
	}
	return keys, nil
}
