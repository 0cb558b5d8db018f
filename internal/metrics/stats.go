package metrics

import "math"

// Mean computes the arithmetic mean of a float64 slice.
// Returns NaN for empty input so that a reduction over an empty score axis
// is not mistaken for a perfect score.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// columnMeans averages every column of a row-major matrix over its rows.
func columnMeans(rows [][]float64, width int) []float64 {
	out := make([]float64, width)
	col := make([]float64, len(rows))
	for j := 0; j < width; j++ {
		for i, row := range rows {
			col[i] = row[j]
		}
		out[j] = Mean(col)
	}
	return out
}
