package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spboyer/probscore/internal/panel"
)

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// LoadObservations reads observations from a .csv or .json file.
func LoadObservations(path string) (*panel.Observations, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	if !isJSON(path) {
		return ReadObservations(f, path)
	}
	var obs panel.Observations
	if err := decodeJSON(f, path, &obs); err != nil {
		return nil, err
	}
	if err := obs.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &obs, nil
}

// LoadForecast reads a forecast panel from a .csv or .json file.
func LoadForecast(path string) (*panel.Forecast, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	if !isJSON(path) {
		return ReadForecast(f, path)
	}
	var fc panel.Forecast
	if err := decodeJSON(f, path, &fc); err != nil {
		return nil, err
	}
	if err := fc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &fc, nil
}

func decodeJSON(r io.Reader, name string, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("json: parse %s: %w", name, err)
	}
	return nil
}
