package main

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spboyer/probscore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const evalSuite = `
name: nightly
config:
  score_average: false
metrics:
  - name: pinball
    type: pinball_loss
    params:
      score_average: true
    threshold:
      max: 0.5
  - name: coverage
    type: empirical_coverage
    threshold:
      tolerance: 0.15
  - name: width
    type: interval_width
`

func decodeReport(t *testing.T, out string) *models.EvaluationReport {
	t.Helper()
	var report models.EvaluationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	return &report
}

func TestEval_MetricFlag(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	observed, forecast := writePanels(t, dir)

	out, err := runCLI(t, "eval", "--observed", observed, "--forecast", forecast, "--metric", "pinball_loss")
	require.NoError(t, err, out)

	assert.Contains(t, out, "METRIC")
	assert.Contains(t, out, "pinball_loss")
	assert.Contains(t, out, "0.0667")
	assert.Contains(t, out, "1 metrics: 1 passed, 0 failed, 0 errors")
}

func TestEval_NamedMetricWithParams(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	observed, forecast := writePanels(t, dir)

	out, err := runCLI(t, "eval", "--observed", observed, "--forecast", forecast,
		"--metric", "p=pinball_loss", "--param", "alpha=[0.05, 0.5]", "--param", "score_average=false",
		"--format", "json")
	require.NoError(t, err, out)

	report := decodeReport(t, out)
	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.Equal(t, "p", res.Name)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "0.05", res.Entries[0].Label)
	assert.InDelta(t, 0.1, *res.Entries[0].Value, 1e-12)
	assert.InDelta(t, 0.0, *res.Entries[1].Value, 1e-12)
}

func TestEval_SuiteFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	observed, forecast := writePanels(t, dir)
	suite := writeFile(t, dir, "nightly.yaml", evalSuite)

	out, err := runCLI(t, "eval", "--observed", observed, "--forecast", forecast, "--suite", suite, "--format", "json")
	require.NoError(t, err, out)

	report := decodeReport(t, out)
	assert.Equal(t, "nightly", report.SuiteName)
	assert.Equal(t, 3, report.Digest.Passed)
	assert.Equal(t, observed, report.Setup.Observed)

	coverage, ok := report.Result("coverage")
	require.True(t, ok)
	require.Len(t, coverage.Entries, 1)
	assert.InDelta(t, 1.0, *coverage.Entries[0].Value, 1e-12)

	width, ok := report.Result("width")
	require.True(t, ok)
	assert.InDelta(t, 4.0, *width.Entries[0].Value, 1e-12)
}

func TestEval_DefaultSuiteFromProject(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	observed, forecast := writePanels(t, dir)
	writeFile(t, dir, ".probscore.yaml", `
paths:
  suite: suites/main.yaml
defaults:
  format: json
`)
	writeFile(t, dir, "suites/main.yaml", evalSuite)

	out, err := runCLI(t, "eval", "--observed", observed, "--forecast", forecast)
	require.NoError(t, err, out)
	assert.Equal(t, "nightly", decodeReport(t, out).SuiteName)
}

func TestEval_ThresholdFailure(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	observed, forecast := writePanels(t, dir)
	suite := writeFile(t, dir, "strict.yaml", `
name: strict
metrics:
  - type: pinball_loss
    threshold:
      max: 0.01
`)

	out, err := runCLI(t, "eval", "--observed", observed, "--forecast", forecast, "--suite", suite)
	require.Error(t, err)

	var checkErr *CheckFailureError
	require.True(t, errors.As(err, &checkErr))
	assert.Contains(t, checkErr.Message, "1 failed and 0 error(s)")
	assert.Contains(t, out, "pinball_loss: max check on value failed")
}

func TestEval_OutputAndCI(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	observed, forecast := writePanels(t, dir)
	reportPath := filepath.Join(dir, "out", "report.json")

	out, err := runCLI(t, "eval", "--observed", observed, "--forecast", forecast,
		"--metric", "pinball_loss", "--ci", "0.9", "--by-index", "--output", reportPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "@0.9")
	assert.Contains(t, out, "pinball_loss by index:")

	saved, err := models.LoadReport(reportPath)
	require.NoError(t, err)
	res := saved.Results[0]
	require.NotNil(t, res.CI)
	assert.InDelta(t, 0.9, res.CI.ConfidenceLevel, 1e-12)
	assert.Len(t, res.Series, 4)
	require.NotNil(t, res.ByIndex)
	assert.Len(t, res.ByIndex.Index, 4)
}

func TestEval_Only(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	observed, forecast := writePanels(t, dir)
	suite := writeFile(t, dir, "nightly.yaml", evalSuite)

	out, err := runCLI(t, "eval", "--observed", observed, "--forecast", forecast, "--suite", suite,
		"--only", "cov*", "--format", "json")
	require.NoError(t, err, out)
	report := decodeReport(t, out)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "coverage", report.Results[0].Name)

	_, err = runCLI(t, "eval", "--observed", observed, "--forecast", forecast, "--suite", suite, "--only", "nothing")
	require.ErrorContains(t, err, "no metrics match")
}

func TestEval_UsageErrors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	observed, forecast := writePanels(t, dir)
	suite := writeFile(t, dir, "nightly.yaml", evalSuite)
	bad := writeFile(t, dir, "bad.yaml", "metrics:\n  - type: crps\n")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"suite and metric", []string{"--suite", suite, "--metric", "pinball_loss"}, "cannot be combined"},
		{"param without metric", []string{"--param", "alpha=0.5"}, "--param requires --metric"},
		{"malformed param", []string{"--metric", "pinball_loss", "--param", "alpha"}, "expected key=value"},
		{"unknown param", []string{"--metric", "pinball_loss", "--param", "beta=1"}, "invalid --metric"},
		{"unknown metric", []string{"--metric", "crps"}, "invalid --metric"},
		{"duplicate metric", []string{"--metric", "pinball_loss", "--metric", "pinball_loss"}, "duplicate metric name"},
		{"bad ci", []string{"--metric", "pinball_loss", "--ci", "1.5"}, "--ci must be in (0, 1)"},
		{"bad format", []string{"--metric", "pinball_loss", "--format", "xml"}, "unknown output format"},
		{"no suite", nil, "no suite file probscore.yaml found"},
		{"invalid suite", []string{"--suite", bad}, "invalid suite"},
		{"missing file", []string{"--metric", "pinball_loss", "--observed", filepath.Join(dir, "nope.csv")}, "loading observations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"eval", "--observed", observed, "--forecast", forecast}, tt.args...)
			_, err := runCLI(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var checkErr *CheckFailureError
			assert.False(t, errors.As(err, &checkErr))
		})
	}
}

func TestEval_RequiredFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := runCLI(t, "eval", "--metric", "pinball_loss")
	require.ErrorContains(t, err, `required flag(s) "forecast", "observed" not set`)
}
