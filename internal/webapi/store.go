package webapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spboyer/probscore/internal/models"
)

// ErrRunNotFound is returned when a run ID does not match any stored run.
var ErrRunNotFound = errors.New("run not found")

// RunStore provides access to evaluation reports.
type RunStore interface {
	// ListRuns returns all runs, sorted by the given field and order.
	ListRuns(sortField, order string) ([]RunSummary, error)
	// GetRun returns the full report of a run.
	GetRun(id string) (*models.EvaluationReport, error)
	// Summary returns aggregate counts across all runs.
	Summary() (*SummaryResponse, error)
	// Save stores a finished report.
	Save(report *models.EvaluationReport) error
}

// FileStore keeps reports in memory and mirrors them as JSON files in a
// results directory. An empty directory keeps reports in memory only.
type FileStore struct {
	dir string

	mu      sync.RWMutex
	runs    map[string]*models.EvaluationReport
	loaded  bool
	loadErr error
}

// NewFileStore creates a FileStore that reads and writes results in dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:  dir,
		runs: make(map[string]*models.EvaluationReport),
	}
}

// load reads all report JSON files from the configured directory. Files
// that are not reports are skipped.
func (fs *FileStore) load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.runs = make(map[string]*models.EvaluationReport)

	if fs.dir == "" {
		fs.loaded = true
		return nil
	}

	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		if os.IsNotExist(err) {
			fs.loaded = true
			return nil
		}
		fs.loadErr = err
		return err
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		report, err := models.LoadReport(filepath.Join(fs.dir, e.Name()))
		if err != nil || len(report.Results) == 0 {
			continue
		}
		if report.RunID == "" {
			// Use filename (without extension) as fallback ID.
			report.RunID = strings.TrimSuffix(e.Name(), ".json")
		}
		fs.runs[report.RunID] = report
	}

	fs.loaded = true
	fs.loadErr = nil
	return nil
}

// ensureLoaded loads data if not already loaded.
func (fs *FileStore) ensureLoaded() error {
	fs.mu.RLock()
	if fs.loaded {
		fs.mu.RUnlock()
		return nil
	}
	fs.mu.RUnlock()
	return fs.load()
}

// Reload forces a fresh reload of all result files from disk.
func (fs *FileStore) Reload() error {
	return fs.load()
}

// Save stores the report and writes it to <dir>/<run id>.json.
func (fs *FileStore) Save(report *models.EvaluationReport) error {
	if report.RunID == "" {
		return errors.New("report has no run id")
	}
	if err := fs.ensureLoaded(); err != nil {
		return err
	}

	if fs.dir != "" {
		if err := os.MkdirAll(fs.dir, 0o755); err != nil {
			return fmt.Errorf("creating results directory: %w", err)
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling report: %w", err)
		}
		path := filepath.Join(fs.dir, report.RunID+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	fs.mu.Lock()
	fs.runs[report.RunID] = report
	fs.mu.Unlock()
	return nil
}

func reportToSummary(r *models.EvaluationReport) RunSummary {
	outcome := "passed"
	if r.Digest.Failed > 0 || r.Digest.Errors > 0 {
		outcome = "failed"
	}
	return RunSummary{
		ID:        r.RunID,
		Suite:     r.SuiteName,
		Outcome:   outcome,
		Total:     r.Digest.Total,
		Passed:    r.Digest.Passed,
		Failed:    r.Digest.Failed,
		Errors:    r.Digest.Errors,
		Rows:      r.Setup.Rows,
		Duration:  float64(r.Digest.DurationMs) / 1000.0,
		Timestamp: r.Timestamp,
	}
}

// ListRuns returns all runs sorted by the given field and order.
func (fs *FileStore) ListRuns(sortField, order string) ([]RunSummary, error) {
	if err := fs.ensureLoaded(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	runs := make([]RunSummary, 0, len(fs.runs))
	for _, r := range fs.runs {
		runs = append(runs, reportToSummary(r))
	}

	sortRuns(runs, sortField, order)
	return runs, nil
}

// GetRun returns the full report of a run.
func (fs *FileStore) GetRun(id string) (*models.EvaluationReport, error) {
	if err := fs.ensureLoaded(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	r, ok := fs.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return r, nil
}

// Summary returns aggregate counts across all runs.
func (fs *FileStore) Summary() (*SummaryResponse, error) {
	if err := fs.ensureLoaded(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	resp := &SummaryResponse{}
	if len(fs.runs) == 0 {
		return resp, nil
	}

	totalPassed := 0
	totalDuration := 0.0
	for _, r := range fs.runs {
		resp.TotalRuns++
		resp.TotalMetrics += r.Digest.Total
		totalPassed += r.Digest.Passed
		totalDuration += float64(r.Digest.DurationMs) / 1000.0
	}

	if resp.TotalMetrics > 0 {
		resp.PassRate = float64(totalPassed) / float64(resp.TotalMetrics) * 100.0
	}
	resp.AvgDuration = totalDuration / float64(resp.TotalRuns)
	return resp, nil
}

func sortRuns(runs []RunSummary, field, order string) {
	less := func(i, j int) bool {
		switch field {
		case "duration":
			return runs[i].Duration < runs[j].Duration
		case "failed":
			return runs[i].Failed+runs[i].Errors < runs[j].Failed+runs[j].Errors
		case "rows":
			return runs[i].Rows < runs[j].Rows
		default: // "timestamp" or empty
			return runs[i].Timestamp.Before(runs[j].Timestamp)
		}
	}

	if order == "asc" {
		sort.SliceStable(runs, less)
	} else {
		sort.SliceStable(runs, func(i, j int) bool { return less(j, i) })
	}
}

// Ensure FileStore satisfies RunStore.
var _ RunStore = (*FileStore)(nil)
