package metrics

// ConstraintViolation scores intervals with the interval score: the width
// plus a penalty for excursions beyond either bound, scaled by the
// miscoverage tolerance.
type ConstraintViolation struct {
	intervalMetric
}

// NewConstraintViolation creates a [ConstraintViolation].
func NewConstraintViolation(args IntervalArgs) (*ConstraintViolation, error) {
	im, err := newIntervalMetric(TypeConstraintViolation, args, IntervalScore)
	if err != nil {
		return nil, err
	}
	m := &ConstraintViolation{intervalMetric: im}
	m.losses = m.lossMatrix
	return m, nil
}

func (m *ConstraintViolation) Type() Type          { return TypeConstraintViolation }
func (m *ConstraintViolation) LowerIsBetter() bool { return true }

// IntervalScore returns (U-L) + 2/(1-c)*max(0, L-y) + 2/(1-c)*max(0, y-U).
// The penalty is only added for an actual excursion, so a realized value
// inside a full-coverage interval scores exactly the width.
func IntervalScore(y, lower, upper, coverage float64) float64 {
	score := upper - lower
	if y < lower {
		score += 2 / (1 - coverage) * (lower - y)
	}
	if y > upper {
		score += 2 / (1 - coverage) * (y - upper)
	}
	return score
}
