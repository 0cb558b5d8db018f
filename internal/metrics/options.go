package metrics

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidParam reports a metric parameter outside its domain.
var ErrInvalidParam = errors.New("invalid parameter")

// Multioutput controls reduction across variables.
type Multioutput string

const (
	// UniformAverage reduces across variables to one value.
	UniformAverage Multioutput = "uniform_average"
	// RawValues keeps one value per variable.
	RawValues Multioutput = "raw_values"
)

func (m Multioutput) String() string {
	return string(m)
}

// ParseMultioutput converts a flag or config value to a Multioutput.
func ParseMultioutput(s string) (Multioutput, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "uniform_average":
		return UniformAverage, nil
	case "raw_values":
		return RawValues, nil
	default:
		return UniformAverage, fmt.Errorf("%w: multioutput %q: must be uniform_average or raw_values", ErrInvalidParam, s)
	}
}

// Options are the aggregation settings shared by every metric.
type Options struct {
	// ScoreAverage reduces across quantile levels or coverages.
	ScoreAverage bool `mapstructure:"score_average" json:"score_average"`
	// Multioutput reduces across variables.
	Multioutput Multioutput `mapstructure:"multioutput" json:"multioutput"`
}

// DefaultOptions averages over scores and variables.
func DefaultOptions() Options {
	return Options{ScoreAverage: true, Multioutput: UniformAverage}
}

// Validate normalizes Multioutput and rejects unknown values.
func (o *Options) Validate() error {
	m, err := ParseMultioutput(string(o.Multioutput))
	if err != nil {
		return err
	}
	o.Multioutput = m
	return nil
}
