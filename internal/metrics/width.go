package metrics

// IntervalWidth scores the sharpness of interval forecasts: the distance
// between the bounds, regardless of the realized value.
type IntervalWidth struct {
	intervalMetric
}

// NewIntervalWidth creates an [IntervalWidth].
func NewIntervalWidth(args IntervalArgs) (*IntervalWidth, error) {
	im, err := newIntervalMetric(TypeIntervalWidth, args, width)
	if err != nil {
		return nil, err
	}
	m := &IntervalWidth{intervalMetric: im}
	m.losses = m.lossMatrix
	return m, nil
}

func (m *IntervalWidth) Type() Type          { return TypeIntervalWidth }
func (m *IntervalWidth) LowerIsBetter() bool { return true }

func width(_, lower, upper, _ float64) float64 {
	return upper - lower
}
