package metrics

// EmpiricalCoverage scores each interval with the indicator of containing
// the realized value. Averaged over time it estimates the coverage
// probability, to be compared against the nominal coverage.
type EmpiricalCoverage struct {
	intervalMetric
}

// NewEmpiricalCoverage creates an [EmpiricalCoverage].
func NewEmpiricalCoverage(args IntervalArgs) (*EmpiricalCoverage, error) {
	im, err := newIntervalMetric(TypeEmpiricalCoverage, args, Covered)
	if err != nil {
		return nil, err
	}
	m := &EmpiricalCoverage{intervalMetric: im}
	m.losses = m.lossMatrix
	return m, nil
}

func (m *EmpiricalCoverage) Type() Type          { return TypeEmpiricalCoverage }
func (m *EmpiricalCoverage) LowerIsBetter() bool { return false }

// Covered returns 1 when lower <= y <= upper and 0 otherwise.
func Covered(y, lower, upper, _ float64) float64 {
	if lower <= y && y <= upper {
		return 1
	}
	return 0
}
