package reporting

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spboyer/probscore/internal/models"
	"golang.org/x/term"
)

// ErrUnknownFormat reports an output format the reporter does not support.
var ErrUnknownFormat = errors.New("unknown output format")

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
	ansiBold  = "\033[1m"
)

// TableOptions controls the text table.
type TableOptions struct {
	// Color enables ANSI status colors.
	Color bool
	// ByIndex prints the per-time-point frame of each result that has one.
	ByIndex bool
}

// UseColor reports whether w is a terminal that should receive ANSI colors.
func UseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Write renders the report in the named format: table, json or junit.
func Write(w io.Writer, report *models.EvaluationReport, format string, opts TableOptions) error {
	switch format {
	case "", "table":
		return WriteTable(w, report, opts)
	case "json":
		return WriteJSON(w, report)
	case "junit":
		return WriteJUnit(w, report)
	default:
		return fmt.Errorf("%w %q: must be table, json or junit", ErrUnknownFormat, format)
	}
}

type tableRow struct {
	metric, entry, value, ci, status string
	passed                           bool
}

// WriteTable writes one row per result entry, then a summary.
func WriteTable(w io.Writer, report *models.EvaluationReport, opts TableOptions) error {
	rows := []tableRow{{metric: "METRIC", entry: "ENTRY", value: "VALUE", ci: "CI", status: "STATUS", passed: true}}
	for i := range report.Results {
		rows = append(rows, resultRows(&report.Results[i])...)
	}

	widths := make([]int, 4)
	for _, r := range rows {
		for j, cell := range []string{r.metric, r.entry, r.value, r.ci} {
			widths[j] = max(widths[j], runewidth.StringWidth(cell))
		}
	}

	var b strings.Builder
	for i, r := range rows {
		status := r.status
		if opts.Color && i > 0 && status != "" {
			color := ansiGreen
			if !r.passed {
				color = ansiRed
			}
			status = color + status + ansiReset
		}
		line := fmt.Sprintf("%s  %s  %s  %s  %s",
			padRight(r.metric, widths[0]),
			padRight(r.entry, widths[1]),
			padLeft(r.value, widths[2]),
			padRight(r.ci, widths[3]),
			status)
		if opts.Color && i == 0 {
			line = ansiBold + line + ansiReset
		}
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteString("\n")
	}

	for _, res := range report.Results {
		if res.Status == models.StatusError {
			fmt.Fprintf(&b, "\n%s: error: %s\n", res.Name, res.Error)
			continue
		}
		for _, c := range res.Checks {
			if !c.Passed {
				target := c.Target
				if target == "" {
					target = "value"
				}
				fmt.Fprintf(&b, "\n%s: %s check on %s failed: %s\n", res.Name, c.Check, target, c.Message)
			}
		}
	}

	if opts.ByIndex {
		for i := range report.Results {
			writeFrame(&b, &report.Results[i])
		}
	}

	d := report.Digest
	fmt.Fprintf(&b, "\n%d metrics: %d passed, %d failed, %d errors (%s)\n",
		d.Total, d.Passed, d.Failed, d.Errors, report.RunID)

	_, err := io.WriteString(w, b.String())
	return err
}

func resultRows(res *models.MetricResult) []tableRow {
	status := string(res.Status)
	passed := res.Status == models.StatusPassed
	if res.Status == models.StatusError {
		return []tableRow{{metric: res.Name, entry: "-", value: "-", ci: "-", status: status}}
	}

	ci := "-"
	if res.CI != nil {
		ci = fmt.Sprintf("[%s, %s] @%s",
			formatFloat(res.CI.Lower), formatFloat(res.CI.Upper),
			strconv.FormatFloat(res.CI.ConfidenceLevel, 'g', -1, 64))
	}

	if len(res.Entries) == 0 {
		entry := "-"
		if res.Value == nil && res.Axis != "" && res.Axis != "none" {
			entry = "(empty)"
		}
		return []tableRow{{metric: res.Name, entry: entry, value: formatNumber(res.Value), ci: ci, status: status, passed: passed}}
	}

	rows := make([]tableRow, len(res.Entries))
	for i, e := range res.Entries {
		rows[i] = tableRow{entry: e.Label, value: formatNumber(e.Value), ci: "", status: "", passed: passed}
	}
	rows[0].metric = res.Name
	rows[0].ci = ci
	rows[0].status = status
	return rows
}

func writeFrame(b *strings.Builder, res *models.MetricResult) {
	if res.ByIndex == nil {
		return
	}
	columns := res.ByIndex.Columns
	if len(columns) == 0 {
		columns = []string{res.Name}
	}

	widths := make([]int, len(columns)+1)
	widths[0] = runewidth.StringWidth("INDEX")
	for _, idx := range res.ByIndex.Index {
		widths[0] = max(widths[0], runewidth.StringWidth(idx))
	}
	for j, c := range columns {
		widths[j+1] = max(runewidth.StringWidth(c), 10)
	}

	fmt.Fprintf(b, "\n%s by index:\n", res.Name)
	header := []string{padRight("INDEX", widths[0])}
	for j, c := range columns {
		header = append(header, padLeft(c, widths[j+1]))
	}
	b.WriteString(strings.Join(header, "  ") + "\n")

	for t, idx := range res.ByIndex.Index {
		cells := []string{padRight(idx, widths[0])}
		for j, v := range res.ByIndex.Values[t] {
			cells = append(cells, padLeft(formatNumber(v), widths[j+1]))
		}
		b.WriteString(strings.Join(cells, "  ") + "\n")
	}
}

func formatNumber(v *float64) string {
	if v == nil {
		return "NaN"
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

func padLeft(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return strings.Repeat(" ", width-sw) + s
}
