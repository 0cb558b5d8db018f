package statistics

import (
	"math"
	"math/rand"
	"sort"
)

// ConfidenceInterval holds the result of a bootstrap confidence interval computation.
type ConfidenceInterval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Mean            float64 `json:"mean"`
	ConfidenceLevel float64 `json:"confidence_level"`
	NumBootstraps   int     `json:"num_bootstraps"`
	SampleSize      int     `json:"sample_size"`
}

// DefaultBootstrapIterations is the number of bootstrap resamples.
const DefaultBootstrapIterations = 10000

// DefaultConfidenceLevel is used when no level is configured.
const DefaultConfidenceLevel = 0.95

// BootstrapOptions configures a bootstrap run. Zero values take defaults;
// a negative Seed uses a non-deterministic source.
type BootstrapOptions struct {
	ConfidenceLevel float64
	Iterations      int
	Seed            int64
}

// BootstrapCI computes a bootstrap confidence interval over per-time-point
// losses using the percentile method. NaN entries (time points where nothing
// was scored) are ignored. Returns a degenerate interval when fewer than 2
// finite values exist.
func BootstrapCI(values []float64, opts BootstrapOptions) ConfidenceInterval {
	if opts.ConfidenceLevel <= 0 || opts.ConfidenceLevel >= 1 {
		opts.ConfidenceLevel = DefaultConfidenceLevel
	}
	if opts.Iterations <= 0 {
		opts.Iterations = DefaultBootstrapIterations
	}

	scores := finite(values)
	n := len(scores)
	if n < 2 {
		m := mean(scores)
		return ConfidenceInterval{
			Lower:           m,
			Upper:           m,
			Mean:            m,
			ConfidenceLevel: opts.ConfidenceLevel,
			NumBootstraps:   0,
			SampleSize:      n,
		}
	}

	var rng *rand.Rand
	if opts.Seed >= 0 {
		rng = rand.New(rand.NewSource(opts.Seed))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	m := mean(scores)
	iters := opts.Iterations

	// Bootstrap: resample with replacement, compute mean of each resample
	bootMeans := make([]float64, iters)
	sample := make([]float64, n)
	for i := 0; i < iters; i++ {
		for j := 0; j < n; j++ {
			sample[j] = scores[rng.Intn(n)]
		}
		bootMeans[i] = mean(sample)
	}

	sort.Float64s(bootMeans)

	// Percentile method
	alpha := 1.0 - opts.ConfidenceLevel
	loIdx := int(math.Floor(alpha / 2.0 * float64(iters)))
	hiIdx := int(math.Floor((1.0 - alpha/2.0) * float64(iters)))
	if hiIdx >= iters {
		hiIdx = iters - 1
	}

	return ConfidenceInterval{
		Lower:           bootMeans[loIdx],
		Upper:           bootMeans[hiIdx],
		Mean:            m,
		ConfidenceLevel: opts.ConfidenceLevel,
		NumBootstraps:   iters,
		SampleSize:      n,
	}
}

// IsSignificant returns true if the confidence interval does not contain zero,
// indicating statistical significance at the given confidence level.
func IsSignificant(ci ConfidenceInterval) bool {
	return ci.Lower > 0 || ci.Upper < 0
}

// PairedDifferences returns candidate[i] - reference[i] for every time point
// where both are finite. The slices must be aligned on the same index.
func PairedDifferences(reference, candidate []float64) []float64 {
	n := min(len(reference), len(candidate))
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		d := candidate[i] - reference[i]
		if !math.IsNaN(d) && !math.IsInf(d, 0) {
			out = append(out, d)
		}
	}
	return out
}

// HasInfinite reports whether any value is +Inf or -Inf. A percentile
// interval over such a series has no finite bound.
func HasInfinite(values []float64) bool {
	for _, v := range values {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
