package orchestration

import (
	"errors"
	"fmt"
	"math"

	"github.com/spboyer/probscore/internal/metrics"
	"github.com/spboyer/probscore/internal/models"
)

// ErrThreshold reports a threshold that cannot be applied to a metric.
var ErrThreshold = errors.New("invalid threshold")

// checkTarget is one entry of a score a threshold applies to.
type checkTarget struct {
	label string
	level float64
	value float64
}

func targetsOf(score *metrics.Score) []checkTarget {
	if score.IsScalar() {
		return []checkTarget{{value: score.Value, level: math.NaN()}}
	}
	targets := make([]checkTarget, len(score.Values))
	for i, l := range score.Labels {
		targets[i] = checkTarget{label: score.Axis.Format(l), level: l.Score, value: score.Values[i]}
	}
	return targets
}

// runChecks applies a threshold to every entry of a score. A missing value
// fails every check it is subject to.
func runChecks(th *models.Threshold, m metrics.Metric, score *metrics.Score) ([]models.CheckOutcome, error) {
	if th == nil {
		return nil, nil
	}
	targets := targetsOf(score)

	var out []models.CheckOutcome
	if th.Max != nil {
		limit := *th.Max
		for _, t := range targets {
			out = append(out, bound("max", t, limit, t.value <= limit,
				fmt.Sprintf("%.6g exceeds max %g", t.value, limit)))
		}
	}
	if th.Min != nil {
		limit := *th.Min
		for _, t := range targets {
			out = append(out, bound("min", t, limit, t.value >= limit,
				fmt.Sprintf("%.6g is below min %g", t.value, limit)))
		}
	}
	if th.Tolerance != nil {
		if m.Type() != metrics.TypeEmpiricalCoverage {
			return nil, fmt.Errorf("%w: tolerance applies to %s only", ErrThreshold, metrics.TypeEmpiricalCoverage)
		}
		if score.Axis != metrics.AxisScore && score.Axis != metrics.AxisVariableScore {
			return nil, fmt.Errorf("%w: tolerance needs per-coverage results, set score_average to false", ErrThreshold)
		}
		tol := *th.Tolerance
		for _, t := range targets {
			gap := math.Abs(t.value - t.level)
			out = append(out, bound("tolerance", t, tol, gap <= tol+1e-12,
				fmt.Sprintf("coverage %.4g is %.4g from nominal %g", t.value, gap, t.level)))
		}
	}
	return out, nil
}

// bound builds a check outcome. ok is false for NaN values since every
// comparison with NaN is false.
func bound(check string, t checkTarget, limit float64, ok bool, failure string) models.CheckOutcome {
	c := models.CheckOutcome{
		Check:  check,
		Target: t.label,
		Limit:  limit,
		Actual: models.Float(t.value),
		Passed: ok,
	}
	switch {
	case math.IsNaN(t.value):
		c.Passed = false
		c.Message = "no value to check"
	case !ok:
		c.Message = failure
	}
	return c
}
