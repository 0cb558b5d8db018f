package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spboyer/probscore/internal/models"
	"github.com/spboyer/probscore/internal/orchestration"
	"github.com/spboyer/probscore/internal/panel"
	"github.com/spboyer/probscore/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore implements RunStore for testing.
type mockStore struct {
	runs    map[string]*models.EvaluationReport
	listErr error
	getErr  error
	sumErr  error
	saveErr error
}

func newMockStore() *mockStore {
	return &mockStore{runs: make(map[string]*models.EvaluationReport)}
}

func (m *mockStore) ListRuns(sortField, order string) ([]RunSummary, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	runs := make([]RunSummary, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, reportToSummary(r))
	}
	sortRuns(runs, sortField, order)
	return runs, nil
}

func (m *mockStore) GetRun(id string) (*models.EvaluationReport, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return r, nil
}

func (m *mockStore) Summary() (*SummaryResponse, error) {
	if m.sumErr != nil {
		return nil, m.sumErr
	}
	return &SummaryResponse{TotalRuns: len(m.runs)}, nil
}

func (m *mockStore) Save(r *models.EvaluationReport) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.runs[r.RunID] = r
	return nil
}

type evaluatorFunc func(ctx context.Context, suite *models.Suite, obs *panel.Observations, fc *panel.Forecast) (*models.EvaluationReport, error)

func (f evaluatorFunc) Run(ctx context.Context, suite *models.Suite, obs *panel.Observations, fc *panel.Forecast) (*models.EvaluationReport, error) {
	return f(ctx, suite, obs, fc)
}

func sampleReport(id string, passed, failed int, ts time.Time) *models.EvaluationReport {
	r := &models.EvaluationReport{RunID: id, SuiteName: "suite-" + id, Timestamp: ts}
	for i := 0; i < passed; i++ {
		r.Results = append(r.Results, models.MetricResult{Name: fmt.Sprintf("ok-%d", i), Status: models.StatusPassed})
	}
	for i := 0; i < failed; i++ {
		r.Results = append(r.Results, models.MetricResult{Name: fmt.Sprintf("bad-%d", i), Status: models.StatusFailed})
	}
	r.Summarize(time.Duration(passed+failed) * time.Second)
	return r
}

func newTestMux(store RunStore, eval Evaluator, maxBody int64) *http.ServeMux {
	if eval == nil {
		eval = orchestration.NewRunner(orchestration.WithWorkers(2))
	}
	mux := http.NewServeMux()
	RegisterRoutes(mux, NewHandlers(store, eval, maxBody, nil))
	return mux
}

func do(t *testing.T, h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const evaluateBody = `{
  "name": "load",
  "metrics": [
    {"name": "pinball", "type": "pinball_loss", "threshold": {"max": 1}},
    {"name": "coverage", "type": "empirical_coverage", "params": {"score_average": false}}
  ],
  "observations": {"index": ["t0", "t1"], "variables": ["y"], "values": [[10, 11]]},
  "forecast": {
    "kind": "pred_quantiles",
    "index": ["t0", "t1"],
    "columns": [
      {"variable": "y", "alpha": 0.05, "values": [8, 9]},
      {"variable": "y", "alpha": 0.5, "values": [10, 11]},
      {"variable": "y", "alpha": 0.95, "values": [12, 13]}
    ]
  }
}`

func TestHandleHealth(t *testing.T) {
	rec := do(t, newTestMux(newMockStore(), nil, 0), http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, Version, resp.Version)
}

func TestHandleMetrics(t *testing.T) {
	rec := do(t, newTestMux(newMockStore(), nil, 0), http.MethodGet, "/api/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Metrics []struct {
			Type          string         `json:"type"`
			LowerIsBetter bool           `json:"lower_is_better"`
			Selector      string         `json:"selector"`
			Defaults      map[string]any `json:"defaults"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Metrics, 4)
	assert.Equal(t, "pinball_loss", resp.Metrics[0].Type)
	assert.Equal(t, "alpha", resp.Metrics[0].Selector)
	assert.True(t, resp.Metrics[0].LowerIsBetter)
	assert.False(t, resp.Metrics[1].LowerIsBetter)
	assert.Contains(t, resp.Metrics[0].Defaults, "score_average")
}

func TestHandleEvaluate(t *testing.T) {
	store := newMockStore()
	mux := newTestMux(store, nil, 0)

	rec := do(t, mux, http.MethodPost, "/api/evaluate", []byte(evaluateBody))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report models.EvaluationReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "load", report.SuiteName)
	assert.Equal(t, 2, report.Setup.Rows)
	require.Len(t, report.Results, 2)

	pinball := report.Results[0]
	assert.Equal(t, models.StatusPassed, pinball.Status)
	require.NotNil(t, pinball.Value)
	// both rows are [8,10,12] around y: losses 0.1, 0, 0.1
	assert.InDelta(t, 0.2/3, *pinball.Value, 1e-9)

	coverage := report.Results[1]
	require.Len(t, coverage.Entries, 1)
	assert.InDelta(t, 1.0, *coverage.Entries[0].Value, 1e-12)

	stored, err := store.GetRun(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, "load", stored.SuiteName)

	rec = do(t, mux, http.MethodGet, "/api/runs/"+report.RunID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleEvaluate_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"malformed json", `{"metrics": [`, http.StatusBadRequest, "invalid request body"},
		{"unknown field", `{"metrics": [], "extra": 1}`, http.StatusBadRequest, "invalid request body"},
		{"missing panels", `{"metrics": [{"type": "pinball_loss"}]}`, http.StatusBadRequest, "observations and forecast are required"},
		{
			"no metrics",
			`{"observations": {"index": ["t0"], "variables": ["y"], "values": [[1]]},
			  "forecast": {"kind": "pred_quantiles", "index": ["t0"], "columns": [{"variable": "y", "alpha": 0.5, "values": [1]}]}}`,
			http.StatusBadRequest, "at least one metric",
		},
		{
			"unknown metric type",
			`{"metrics": [{"type": "crps"}],
			  "observations": {"index": ["t0"], "variables": ["y"], "values": [[1]]},
			  "forecast": {"kind": "pred_quantiles", "index": ["t0"], "columns": [{"variable": "y", "alpha": 0.5, "values": [1]}]}}`,
			http.StatusBadRequest, "invalid metrics: /metrics/0",
		},
		{
			"misaligned index",
			`{"metrics": [{"type": "pinball_loss"}],
			  "observations": {"index": ["t0"], "variables": ["y"], "values": [[1]]},
			  "forecast": {"kind": "pred_quantiles", "index": ["t9"], "columns": [{"variable": "y", "alpha": 0.5, "values": [1]}]}}`,
			http.StatusUnprocessableEntity, "shape mismatch",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			rec := do(t, newTestMux(store, nil, 0), http.MethodPost, "/api/evaluate", []byte(tt.body))

			assert.Equal(t, tt.wantCode, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Contains(t, resp.Error, tt.wantErr)
			assert.Empty(t, store.runs)
		})
	}
}

func TestHandleEvaluate_BodyLimit(t *testing.T) {
	rec := do(t, newTestMux(newMockStore(), nil, 64), http.MethodPost, "/api/evaluate", []byte(evaluateBody))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "exceeds 64 bytes")
}

func TestHandleEvaluate_EvaluatorErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("forecast: %w: missing side", panel.ErrValidation), http.StatusUnprocessableEntity},
		{context.Canceled, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			eval := evaluatorFunc(func(context.Context, *models.Suite, *panel.Observations, *panel.Forecast) (*models.EvaluationReport, error) {
				return nil, tt.err
			})
			rec := do(t, newTestMux(newMockStore(), eval, 0), http.MethodPost, "/api/evaluate", []byte(evaluateBody))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandleEvaluate_SaveErrorStillReturnsReport(t *testing.T) {
	store := newMockStore()
	store.saveErr = errors.New("disk full")

	rec := do(t, newTestMux(store, nil, 0), http.MethodPost, "/api/evaluate", []byte(evaluateBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id"`)
}

func TestHandleRuns(t *testing.T) {
	store := newMockStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.runs["a"] = sampleReport("a", 2, 0, base)
	store.runs["b"] = sampleReport("b", 1, 1, base.Add(time.Hour))
	mux := newTestMux(store, nil, 0)

	rec := do(t, mux, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].ID, "newest first by default")
	assert.Equal(t, "failed", runs[0].Outcome)
	assert.Equal(t, "passed", runs[1].Outcome)

	rec = do(t, mux, http.MethodGet, "/api/runs?sort=timestamp&order=asc", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Equal(t, "a", runs[0].ID)
}

func TestHandleRunDetail(t *testing.T) {
	store := newMockStore()
	store.runs["a"] = sampleReport("a", 1, 0, time.Now())
	mux := newTestMux(store, nil, 0)

	rec := do(t, mux, http.MethodGet, "/api/runs/a", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"suite":"suite-a"`)

	rec = do(t, mux, http.MethodGet, "/api/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	store.getErr = errors.New("read failed")
	rec = do(t, mux, http.MethodGet, "/api/runs/a", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleRunDetailMissingID(t *testing.T) {
	h := NewHandlers(newMockStore(), nil, 0, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/", nil)
	rec := httptest.NewRecorder()
	h.HandleRunDetail(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStoreErrors(t *testing.T) {
	store := newMockStore()
	store.listErr = errors.New("list failed")
	store.sumErr = errors.New("summary failed")
	mux := newTestMux(store, nil, 0)

	rec := do(t, mux, http.MethodGet, "/api/runs", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "list failed"))

	rec = do(t, mux, http.MethodGet, "/api/summary", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "summary failed")
}

func TestInstrumentCountsRequests(t *testing.T) {
	counter := telemetry.HTTPRequestsTotal.WithLabelValues("GET /api/runs/{id}", "404")
	before := counterValue(t, counter)

	do(t, newTestMux(newMockStore(), nil, 0), http.MethodGet, "/api/runs/nope", nil)

	assert.InDelta(t, before+1, counterValue(t, counter), 1e-9)
}

func TestHandleEvaluate_UnknownTypesAddNoSeries(t *testing.T) {
	mux := newTestMux(newMockStore(), nil, 0)
	for _, typ := range []string{"crps_a", "crps_b"} {
		body := strings.Replace(evaluateBody, `"type": "pinball_loss"`, `"type": "`+typ+`"`, 1)
		rec := do(t, mux, http.MethodPost, "/api/evaluate", []byte(body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "probscore_evaluations_total" && mf.GetName() != "probscore_evaluation_latency_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "metric" {
					assert.NotContains(t, []string{"crps_a", "crps_b"}, lp.GetValue())
				}
			}
		}
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantHeader string
		wantCode   int
	}{
		{"no origins configured", nil, http.MethodGet, "http://x", "", http.StatusTeapot},
		{"allowed origin", []string{"http://x"}, http.MethodGet, "http://x", "http://x", http.StatusTeapot},
		{"other origin", []string{"http://x"}, http.MethodGet, "http://y", "", http.StatusTeapot},
		{"preflight", []string{"http://x"}, http.MethodOptions, "http://x", "http://x", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/runs", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			CORSMiddleware(next, tt.allowed...).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantHeader, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
