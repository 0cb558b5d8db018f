package reporting

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spboyer/probscore/internal/models"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one suite run.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one metric.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

// JUnitFailure represents a threshold violation.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError represents a metric that could not be evaluated.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit converts an EvaluationReport to JUnit XML format.
func ConvertToJUnit(report *models.EvaluationReport) *JUnitTestSuites {
	durationSec := float64(report.Digest.DurationMs) / 1000.0
	name := suiteName(report)

	suite := JUnitTestSuite{
		Name:      name,
		Tests:     report.Digest.Total,
		Failures:  report.Digest.Failed,
		Errors:    report.Digest.Errors,
		Time:      durationSec,
		Timestamp: report.Timestamp.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "run_id", Value: report.RunID},
			{Name: "forecast_kind", Value: report.Setup.ForecastKind},
			{Name: "rows", Value: fmt.Sprint(report.Setup.Rows)},
			{Name: "variables", Value: strings.Join(report.Setup.Variables, ",")},
		},
	}

	for i := range report.Results {
		suite.TestCases = append(suite.TestCases, convertResult(name, &report.Results[i]))
	}

	return &JUnitTestSuites{
		Tests:      report.Digest.Total,
		Failures:   report.Digest.Failed,
		Errors:     report.Digest.Errors,
		Time:       durationSec,
		TestSuites: []JUnitTestSuite{suite},
	}
}

func convertResult(classname string, res *models.MetricResult) JUnitTestCase {
	tc := JUnitTestCase{
		Name:      res.Name,
		Classname: classname,
		Time:      float64(res.DurationMs) / 1000.0,
		SystemOut: formatValues(res),
	}

	switch res.Status {
	case models.StatusFailed:
		tc.Failure = buildFailure(res)
	case models.StatusError:
		tc.Error = &JUnitError{
			Message: res.Error,
			Type:    "EvaluationError",
		}
	}

	return tc
}

func buildFailure(res *models.MetricResult) *JUnitFailure {
	var body strings.Builder
	failed := 0
	for _, c := range res.Checks {
		if c.Passed {
			continue
		}
		failed++
		target := c.Target
		if target == "" {
			target = res.Name
		}
		fmt.Fprintf(&body, "[FAIL] %s %s: %s\n", c.Check, target, c.Message)
	}

	return &JUnitFailure{
		Message: fmt.Sprintf("%s: %d of %d threshold checks failed", res.Name, failed, len(res.Checks)),
		Type:    "ThresholdFailure",
		Body:    body.String(),
	}
}

// formatValues renders the score of a result, one entry per line.
func formatValues(res *models.MetricResult) string {
	if res.Status == models.StatusError {
		return ""
	}
	if len(res.Entries) == 0 {
		return fmt.Sprintf("%s = %s\n", res.Type, formatNumber(res.Value))
	}
	var b strings.Builder
	for _, e := range res.Entries {
		fmt.Fprintf(&b, "%s[%s] = %s\n", res.Type, e.Label, formatNumber(e.Value))
	}
	return b.String()
}

// WriteJUnit writes the report as JUnit XML.
func WriteJUnit(w io.Writer, report *models.EvaluationReport) error {
	suites := ConvertToJUnit(report)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func suiteName(report *models.EvaluationReport) string {
	if report.SuiteName != "" {
		return report.SuiteName
	}
	return "probscore"
}
