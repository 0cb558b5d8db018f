// Package dataset loads observation and forecast panels from CSV and JSON
// files.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spboyer/probscore/internal/panel"
)

// table is a parsed CSV file: the header and the data rows.
type table struct {
	headers []string
	records [][]string
}

// readCSV reads a CSV stream. The first row is treated as headers and the
// first column holds the time index.
func readCSV(r io.Reader, name string) (*table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", name, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %s is empty (no header row)", name)
	}
	if len(records[0]) < 2 {
		return nil, fmt.Errorf("csv: %s needs an index column and at least one value column", name)
	}

	return &table{headers: records[0], records: records[1:]}, nil
}

func (t *table) index() []string {
	index := make([]string, len(t.records))
	for i, rec := range t.records {
		index[i] = rec[0]
	}
	return index
}

// column parses value column j (1-based past the index) as floats.
func (t *table) column(j int, name string) ([]float64, error) {
	values := make([]float64, len(t.records))
	for i, rec := range t.records {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[j]), 64)
		if err != nil {
			return nil, fmt.Errorf("csv: %s: row %d column %q: %w", name, i+2, t.headers[j], err)
		}
		values[i] = v
	}
	return values, nil
}

// ReadObservations parses observations with header index,<var>,...
func ReadObservations(r io.Reader, name string) (*panel.Observations, error) {
	t, err := readCSV(r, name)
	if err != nil {
		return nil, err
	}

	obs := &panel.Observations{Index: t.index()}
	for j := 1; j < len(t.headers); j++ {
		values, err := t.column(j, name)
		if err != nil {
			return nil, err
		}
		obs.Variables = append(obs.Variables, strings.TrimSpace(t.headers[j]))
		obs.Values = append(obs.Values, values)
	}
	if err := obs.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return obs, nil
}

// ReadForecast parses a forecast panel. Quantile columns are headed
// <var>/<alpha> and interval columns <var>/<coverage>/<lower|upper>; the
// panel kind follows from the first value column and may not change.
func ReadForecast(r io.Reader, name string) (*panel.Forecast, error) {
	t, err := readCSV(r, name)
	if err != nil {
		return nil, err
	}

	fc := &panel.Forecast{Index: t.index()}
	for j := 1; j < len(t.headers); j++ {
		col, kind, err := parseHeader(t.headers[j])
		if err != nil {
			return nil, fmt.Errorf("csv: %s: %w", name, err)
		}
		if fc.Kind == "" {
			fc.Kind = kind
		} else if fc.Kind != kind {
			return nil, fmt.Errorf("csv: %s: %w: column %q is %s but the panel is %s", name, panel.ErrValidation, t.headers[j], kind, fc.Kind)
		}

		col.Values, err = t.column(j, name)
		if err != nil {
			return nil, err
		}
		fc.Columns = append(fc.Columns, col)
	}
	if err := fc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return fc, nil
}

// parseHeader splits a forecast column header. The variable name may itself
// contain slashes; levels and sides are taken from the end.
func parseHeader(h string) (panel.Column, panel.Kind, error) {
	h = strings.TrimSpace(h)
	parts := strings.Split(h, "/")
	if len(parts) < 2 {
		return panel.Column{}, "", fmt.Errorf("%w: column %q: expected <variable>/<level>", panel.ErrValidation, h)
	}

	last := strings.ToLower(parts[len(parts)-1])
	if last == string(panel.SideLower) || last == string(panel.SideUpper) {
		if len(parts) < 3 {
			return panel.Column{}, "", fmt.Errorf("%w: column %q: expected <variable>/<coverage>/%s", panel.ErrValidation, h, last)
		}
		coverage, err := strconv.ParseFloat(parts[len(parts)-2], 64)
		if err != nil {
			return panel.Column{}, "", fmt.Errorf("%w: column %q: coverage: %v", panel.ErrValidation, h, err)
		}
		return panel.Column{
			Variable: strings.Join(parts[:len(parts)-2], "/"),
			Coverage: coverage,
			Side:     panel.Side(last),
		}, panel.KindIntervals, nil
	}

	alpha, err := strconv.ParseFloat(last, 64)
	if err != nil {
		return panel.Column{}, "", fmt.Errorf("%w: column %q: quantile level: %v", panel.ErrValidation, h, err)
	}
	return panel.Column{
		Variable: strings.Join(parts[:len(parts)-1], "/"),
		Alpha:    alpha,
	}, panel.KindQuantiles, nil
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	return f, nil
}
