package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spboyer/probscore/internal/models"
	"github.com/spboyer/probscore/internal/reporting"
	"github.com/spboyer/probscore/internal/statistics"
	"github.com/spf13/cobra"
)

type compareOptions struct {
	format string
	level  float64
	seed   int64
}

func newCompareCommand() *cobra.Command {
	var o compareOptions

	cmd := &cobra.Command{
		Use:   "compare <reference.json> <report.json> [report.json ...]",
		Short: "Compare saved evaluation reports",
		Long: `Compare reports written by "probscore eval --output" metric by metric.

The first report is the reference. Deltas and skill scores compare the last
report with the reference; the skill score 1 - last/reference is reported for
lower-is-better metrics. When both reports carry bootstrap series (eval --ci),
a paired bootstrap interval of the per-time-point differences tells whether
the change is significant.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.format != "table" && o.format != "json" {
				return fmt.Errorf("unsupported format %q: must be table or json", o.format)
			}
			reports := make([]*models.EvaluationReport, 0, len(args))
			for _, path := range args {
				r, err := models.LoadReport(path)
				if err != nil {
					return fmt.Errorf("failed to load %s: %w", path, err)
				}
				reports = append(reports, r)
			}

			cmp := buildComparison(args, reports, o)
			if o.format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cmp)
			}
			printComparisonTable(cmd.OutOrStdout(), cmp)
			return nil
		},
	}

	cmd.Flags().StringVarP(&o.format, "format", "f", "table", "Output format: table or json")
	cmd.Flags().Float64Var(&o.level, "ci", statistics.DefaultConfidenceLevel, "Confidence level of the paired bootstrap")
	cmd.Flags().Int64Var(&o.seed, "seed", 42, "Seed of the paired bootstrap")

	return cmd
}

// comparedEntry holds one metric entry across all reports.
type comparedEntry struct {
	Metric        string                         `json:"metric"`
	Entry         string                         `json:"entry,omitempty"`
	Type          string                         `json:"type"`
	LowerIsBetter bool                           `json:"lower_is_better"`
	Values        []*float64                     `json:"values"`
	Statuses      []models.Status                `json:"statuses"`
	Delta         *float64                       `json:"delta"`
	Skill         *float64                       `json:"skill,omitempty"`
	Verdict       string                         `json:"verdict,omitempty"`
	PairedCI      *statistics.ConfidenceInterval `json:"paired_ci,omitempty"`
	Significant   *bool                          `json:"significant,omitempty"`
}

func (e comparedEntry) displayName() string {
	if e.Entry == "" {
		return e.Metric
	}
	return e.Metric + "[" + e.Entry + "]"
}

// comparison is the full comparison output.
type comparison struct {
	Files   []string        `json:"files"`
	RunIDs  []string        `json:"run_ids"`
	Passed  []int           `json:"passed"`
	Failed  []int           `json:"failed"`
	Entries []comparedEntry `json:"entries"`
}

func buildComparison(files []string, reports []*models.EvaluationReport, o compareOptions) *comparison {
	cmp := &comparison{Files: files}
	for _, r := range reports {
		cmp.RunIDs = append(cmp.RunIDs, r.RunID)
		cmp.Passed = append(cmp.Passed, r.Digest.Passed)
		cmp.Failed = append(cmp.Failed, r.Digest.Failed+r.Digest.Errors)
	}

	// metric names in order of first appearance
	var names []string
	seen := make(map[string]bool)
	for _, r := range reports {
		for _, res := range r.Results {
			if !seen[res.Name] {
				seen[res.Name] = true
				names = append(names, res.Name)
			}
		}
	}

	n := len(reports)
	for _, name := range names {
		results := make([]*models.MetricResult, n)
		var proto *models.MetricResult
		for i, r := range reports {
			if res, ok := r.Result(name); ok {
				results[i] = res
				if proto == nil {
					proto = res
				}
			}
		}

		for _, label := range entryLabels(results) {
			e := comparedEntry{
				Metric:        name,
				Entry:         label,
				Type:          proto.Type,
				LowerIsBetter: proto.LowerIsBetter,
			}
			for _, res := range results {
				status := models.StatusNA
				if res != nil {
					status = res.Status
				}
				e.Statuses = append(e.Statuses, status)
				e.Values = append(e.Values, lookupValue(res, label))
			}

			ref, last := e.Values[0], e.Values[n-1]
			if ref != nil && last != nil {
				e.Delta = models.Float(*last - *ref)
				if e.LowerIsBetter && *ref != 0 {
					e.Skill = models.Float(1 - *last / *ref)
					e.Verdict = reporting.InterpretSkill(models.Number(e.Skill))
				}
			}
			if label == "" {
				pairedTest(&e, results[0], results[n-1], o)
			}
			cmp.Entries = append(cmp.Entries, e)
		}
	}
	return cmp
}

// entryLabels returns "" for scalar results, otherwise the union of entry
// labels in order of first appearance.
func entryLabels(results []*models.MetricResult) []string {
	var labels []string
	seen := make(map[string]bool)
	scalar := false
	for _, res := range results {
		if res == nil {
			continue
		}
		if len(res.Entries) == 0 {
			scalar = true
			continue
		}
		for _, e := range res.Entries {
			if !seen[e.Label] {
				seen[e.Label] = true
				labels = append(labels, e.Label)
			}
		}
	}
	if scalar || len(labels) == 0 {
		labels = append([]string{""}, labels...)
	}
	return labels
}

func lookupValue(res *models.MetricResult, label string) *float64 {
	if res == nil {
		return nil
	}
	if label == "" {
		return res.Value
	}
	for _, e := range res.Entries {
		if e.Label == label {
			return e.Value
		}
	}
	return nil
}

// pairedTest bootstraps the per-time-point differences between the
// reference and the last report.
func pairedTest(e *comparedEntry, ref, last *models.MetricResult, o compareOptions) {
	if ref == nil || last == nil || len(ref.Series) == 0 || len(ref.Series) != len(last.Series) {
		return
	}
	diffs := statistics.PairedDifferences(models.Numbers(ref.Series), models.Numbers(last.Series))
	ci := statistics.BootstrapCI(diffs, statistics.BootstrapOptions{ConfidenceLevel: o.level, Seed: o.seed})
	if ci.SampleSize < 2 {
		return
	}
	significant := statistics.IsSignificant(ci)
	e.PairedCI = &ci
	e.Significant = &significant
}

func printComparisonTable(w io.Writer, c *comparison) {
	n := len(c.Files)

	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintln(w, " COMPARISON REPORT")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintln(w)
	for i, f := range c.Files {
		fmt.Fprintf(w, "  [%d] %s  (run %s: %d passed, %d failed)\n", i+1, f, c.RunIDs[i], c.Passed[i], c.Failed[i])
	}
	fmt.Fprintln(w)

	header := []string{"Metric"}
	for i := 0; i < n; i++ {
		header = append(header, fmt.Sprintf("[%d]", i+1))
	}
	header = append(header, "Delta", "Skill", "Paired CI")
	rows := [][]string{header}

	for _, e := range c.Entries {
		row := []string{e.displayName()}
		for _, v := range e.Values {
			row = append(row, formatCompareValue(v, "%.4f"))
		}
		row = append(row, formatDelta(e), formatCompareValue(e.Skill, "%+.1f%%"), formatPaired(e))
		rows = append(rows, row)
	}

	widths := make([]int, len(header))
	for _, r := range rows {
		for j, cell := range r {
			widths[j] = max(widths[j], runewidth.StringWidth(cell))
		}
	}
	for _, r := range rows {
		cells := make([]string, len(r))
		for j, cell := range r {
			cells[j] = runewidth.FillRight(cell, widths[j])
		}
		fmt.Fprintln(w, strings.TrimRight("  "+strings.Join(cells, "  "), " "))
	}

	var verdicts []string
	for _, e := range c.Entries {
		if e.Verdict != "" {
			verdicts = append(verdicts, fmt.Sprintf("  %s: %s", e.displayName(), e.Verdict))
		}
	}
	if len(verdicts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, strings.Join(verdicts, "\n"))
	}
}

func formatCompareValue(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	if strings.Contains(format, "%%") {
		return fmt.Sprintf(format, *v*100)
	}
	return fmt.Sprintf(format, *v)
}

func formatDelta(e comparedEntry) string {
	if e.Delta == nil {
		return "n/a"
	}
	icon := " "
	switch {
	case *e.Delta > 0:
		icon = "↑"
	case *e.Delta < 0:
		icon = "↓"
	}
	return fmt.Sprintf("%s%+.4f", icon, *e.Delta)
}

func formatPaired(e comparedEntry) string {
	if e.PairedCI == nil {
		return "-"
	}
	mark := ""
	if *e.Significant {
		mark = " *"
	}
	return fmt.Sprintf("[%+.4f, %+.4f]%s", e.PairedCI.Lower, e.PairedCI.Upper, mark)
}
