package metrics

import (
	"fmt"
	"math"
	"testing"

	"github.com/spboyer/probscore/internal/panel"
)

const sampleRows = 12

var (
	alphaSingle    = []float64{0.5}
	alphaMulti     = []float64{0.05, 0.5, 0.95}
	coverageSingle = []float64{0.9}
	coverageMulti  = []float64{0.7, 0.8, 0.9, 0.99}
)

// sampleData builds aligned observations and a forecast panel. The forecast
// is a median that ignores the wiggle in the observations, with a spread that
// widens along the horizon, so losses are non-trivial and differ per row.
func sampleData(t *testing.T, nVars int, levels []float64, kind panel.Kind) (*panel.Observations, *panel.Forecast) {
	t.Helper()

	index := make([]string, sampleRows)
	for i := range index {
		index[i] = fmt.Sprintf("2024-01-%02d", i+1)
	}

	obs := &panel.Observations{Index: index}
	fc := &panel.Forecast{Kind: kind, Index: index}
	for v := 0; v < nVars; v++ {
		name := fmt.Sprintf("var_%d", v)
		median := 10 + float64(v)
		y := make([]float64, sampleRows)
		for i := range y {
			y[i] = median + 3*math.Sin(float64(i+v))
		}
		obs.Variables = append(obs.Variables, name)
		obs.Values = append(obs.Values, y)

		for _, l := range levels {
			switch kind {
			case panel.KindQuantiles:
				fc.Columns = append(fc.Columns, panel.Column{
					Variable: name,
					Alpha:    l,
					Values:   band(median, (l-0.5)*6),
				})
			case panel.KindIntervals:
				fc.Columns = append(fc.Columns,
					panel.Column{Variable: name, Coverage: l, Side: panel.SideLower, Values: band(median, -l*3)},
					panel.Column{Variable: name, Coverage: l, Side: panel.SideUpper, Values: band(median, l*3)},
				)
			}
		}
	}
	return obs, fc
}

func band(median, offset float64) []float64 {
	out := make([]float64, sampleRows)
	for i := range out {
		out[i] = median + offset*(1+0.1*float64(i))
	}
	return out
}

func mustMetric(t *testing.T, typ Type, params map[string]any) Metric {
	t.Helper()
	m, err := Create(typ, "", params)
	if err != nil {
		t.Fatalf("Create(%s, %v): %v", typ, params, err)
	}
	return m
}
