package orchestration

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spboyer/probscore/internal/models"
)

// MatchField names the part of a metric spec a filter pattern matched.
type MatchField string

const (
	MatchType MatchField = "type"
	MatchName MatchField = "name"
)

// MetricFilter selects metric specs by glob patterns over the metric type or
// the display name.
type MetricFilter struct {
	patterns []string
}

// NewMetricFilter checks every pattern up front so a malformed glob fails
// even when no spec would reach it.
func NewMetricFilter(patterns []string) (*MetricFilter, error) {
	for _, p := range patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid metric filter pattern %q: %w", p, err)
		}
	}
	return &MetricFilter{patterns: patterns}, nil
}

// Match returns the first pattern that selects the spec and the field it
// matched. The type is tried before the name, so "pinball_*" selects every
// pinball entry whatever it is called.
func (f *MetricFilter) Match(s models.MetricSpec) (pattern string, field MatchField, ok bool) {
	for _, p := range f.patterns {
		if m, _ := filepath.Match(p, s.Type); m {
			return p, MatchType, true
		}
	}
	name := s.DisplayName()
	for _, p := range f.patterns {
		if m, _ := filepath.Match(p, name); m {
			return p, MatchName, true
		}
	}
	return "", "", false
}

// FilterMetrics returns the specs selected by at least one pattern, in
// suite order. No patterns selects everything.
func FilterMetrics(specs []models.MetricSpec, patterns []string) ([]models.MetricSpec, error) {
	if len(patterns) == 0 {
		return specs, nil
	}
	f, err := NewMetricFilter(patterns)
	if err != nil {
		return nil, err
	}

	used := make(map[string]bool, len(patterns))
	var selected []models.MetricSpec
	for _, s := range specs {
		p, field, ok := f.Match(s)
		if !ok {
			continue
		}
		used[p] = true
		slog.Debug("Metric selected", "metric", s.DisplayName(), "pattern", p, "field", field)
		selected = append(selected, s)
	}
	for _, p := range patterns {
		if !used[p] {
			slog.Debug("Filter pattern selected no metric", "pattern", p)
		}
	}
	return selected, nil
}
