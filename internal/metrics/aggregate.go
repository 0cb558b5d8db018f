package metrics

// LossMatrix holds per-element losses before aggregation. Scores carries the
// quantile level or coverage of each entry on the score axis.
type LossMatrix struct {
	Index     []string
	Variables []string
	Scores    []float64
	Values    [][][]float64 // [time][variable][score]
}

// NewLossMatrix allocates a zeroed matrix for the given axes.
func NewLossMatrix(index, variables []string, scores []float64) *LossMatrix {
	lm := &LossMatrix{
		Index:     index,
		Variables: variables,
		Scores:    scores,
		Values:    make([][][]float64, len(index)),
	}
	for t := range index {
		lm.Values[t] = make([][]float64, len(variables))
		for v := range variables {
			lm.Values[t][v] = make([]float64, len(scores))
		}
	}
	return lm
}

// Set stores the losses of one (variable, score) column.
func (lm *LossMatrix) Set(variable, score int, losses []float64) {
	for t, l := range losses {
		lm.Values[t][variable][score] = l
	}
}

// AggregateByIndex reduces the variable and score axes as opts require and
// keeps the time axis.
func AggregateByIndex(lm *LossMatrix, opts Options) *IndexedScore {
	axis := axisFor(opts)
	variables := lm.Variables
	if len(lm.Scores) == 0 {
		// nothing was scored, so no variable gets an entry either
		variables = nil
	}
	out := &IndexedScore{
		Axis:   axis,
		Index:  lm.Index,
		Labels: labelsFor(variables, lm.Scores, axis),
		Values: make([][]float64, len(lm.Index)),
	}
	for t, cell := range lm.Values {
		out.Values[t] = reduceCell(cell, axis, len(variables), len(lm.Scores))
	}
	return out
}

// Aggregate reduces the time axis of AggregateByIndex.
func Aggregate(lm *LossMatrix, opts Options) *Score {
	byIndex := AggregateByIndex(lm, opts)
	means := columnMeans(byIndex.Values, byIndex.Width())

	if byIndex.IsSeries() {
		return &Score{Axis: AxisNone, Value: means[0]}
	}
	return &Score{
		Axis:   byIndex.Axis,
		Labels: byIndex.Labels,
		Values: means,
	}
}

func labelsFor(variables []string, scores []float64, axis Axis) []Label {
	var labels []Label
	switch axis {
	case AxisScore:
		for _, s := range scores {
			labels = append(labels, Label{Score: s})
		}
	case AxisVariable:
		for _, v := range variables {
			labels = append(labels, Label{Variable: v})
		}
	case AxisVariableScore:
		for _, v := range variables {
			for _, s := range scores {
				labels = append(labels, Label{Variable: v, Score: s})
			}
		}
	}
	return labels
}

// reduceCell reduces one time point's [variable][score] losses.
func reduceCell(cell [][]float64, axis Axis, nVars, nScores int) []float64 {
	switch axis {
	case AxisScore:
		out := make([]float64, nScores)
		col := make([]float64, nVars)
		for s := 0; s < nScores; s++ {
			for v := 0; v < nVars; v++ {
				col[v] = cell[v][s]
			}
			out[s] = Mean(col)
		}
		return out
	case AxisVariable:
		out := make([]float64, nVars)
		for v := 0; v < nVars; v++ {
			out[v] = Mean(cell[v])
		}
		return out
	case AxisVariableScore:
		out := make([]float64, 0, nVars*nScores)
		for v := 0; v < nVars; v++ {
			out = append(out, cell[v]...)
		}
		return out
	default:
		all := make([]float64, 0, nVars*nScores)
		for v := 0; v < nVars; v++ {
			all = append(all, cell[v]...)
		}
		return []float64{Mean(all)}
	}
}
