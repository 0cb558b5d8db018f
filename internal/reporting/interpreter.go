package reporting

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spboyer/probscore/internal/models"
)

// InterpretCoverage returns a plain-language label for an empirical
// coverage measured against its nominal level.
func InterpretCoverage(empirical, nominal float64) string {
	if math.IsNaN(empirical) {
		return "No intervals were scored"
	}
	gap := empirical - nominal
	switch {
	case math.Abs(gap) <= 0.02:
		return fmt.Sprintf("Well calibrated (%.0f%% vs %.0f%% nominal)", empirical*100, nominal*100)
	case gap < 0:
		return fmt.Sprintf("Intervals too narrow (%.0f%% vs %.0f%% nominal)", empirical*100, nominal*100)
	default:
		return fmt.Sprintf("Intervals too wide (%.0f%% vs %.0f%% nominal)", empirical*100, nominal*100)
	}
}

// InterpretSkill explains a skill score 1 - candidate/reference.
func InterpretSkill(skill float64) string {
	switch {
	case math.IsNaN(skill) || math.IsInf(skill, 0):
		return "Not comparable"
	case skill > 0.1:
		return fmt.Sprintf("Clearly better (%.0f%% lower loss)", skill*100)
	case skill > 0:
		return fmt.Sprintf("Slightly better (%.1f%% lower loss)", skill*100)
	case skill == 0:
		return "No change"
	case skill > -0.1:
		return fmt.Sprintf("Slightly worse (%.1f%% higher loss)", -skill*100)
	default:
		return fmt.Sprintf("Clearly worse (%.0f%% higher loss)", -skill*100)
	}
}

// FormatSummaryReport produces a plain-language report from an EvaluationReport.
func FormatSummaryReport(report *models.EvaluationReport) string {
	var b strings.Builder

	d := report.Digest
	duration := time.Duration(d.DurationMs) * time.Millisecond

	b.WriteString("=== Interpretation ===\n\n")
	fmt.Fprintf(&b, "Metrics:  %d passed, %d failed, %d errors out of %d total\n", d.Passed, d.Failed, d.Errors, d.Total)
	fmt.Fprintf(&b, "Panel:    %d rows, %d variables (%s)\n", report.Setup.Rows, len(report.Setup.Variables), report.Setup.ForecastKind)
	fmt.Fprintf(&b, "Duration: %s\n", formatDuration(duration))

	var coverage []string
	for _, res := range report.Results {
		if res.Type != "empirical_coverage" || res.Status == models.StatusError {
			continue
		}
		for _, e := range res.Entries {
			if e.Score == nil {
				continue
			}
			coverage = append(coverage, fmt.Sprintf("  %s[%s]: %s", res.Name, e.Label, InterpretCoverage(models.Number(e.Value), *e.Score)))
		}
	}
	if len(coverage) > 0 {
		b.WriteString("\nCalibration:\n")
		b.WriteString(strings.Join(coverage, "\n"))
		b.WriteString("\n")
	}

	return b.String()
}

// formatDuration formats a duration in a consistent, human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}
