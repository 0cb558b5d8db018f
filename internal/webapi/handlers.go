package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/spboyer/probscore/internal/metrics"
	"github.com/spboyer/probscore/internal/models"
	"github.com/spboyer/probscore/internal/panel"
	"github.com/spboyer/probscore/internal/telemetry"
	"github.com/spboyer/probscore/internal/validation"
)

// Version is set at build time or defaults to dev.
var Version = "0.1.0-dev"

// DefaultMaxBodyBytes caps evaluation request bodies when no limit is set.
const DefaultMaxBodyBytes int64 = 32 << 20

// Evaluator runs a suite against a panel pair.
type Evaluator interface {
	Run(ctx context.Context, suite *models.Suite, obs *panel.Observations, fc *panel.Forecast) (*models.EvaluationReport, error)
}

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	store        RunStore
	evaluator    Evaluator
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewHandlers creates a new Handlers. A non-positive maxBodyBytes falls
// back to DefaultMaxBodyBytes.
func NewHandlers(store RunStore, evaluator Evaluator, maxBodyBytes int64, logger *slog.Logger) *Handlers {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{store: store, evaluator: evaluator, maxBodyBytes: maxBodyBytes, logger: logger}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandleMetrics lists the registered metric types with their defaults.
func (h *Handlers) HandleMetrics(w http.ResponseWriter, _ *http.Request) {
	resp := MetricsResponse{}
	for _, t := range metrics.Types() {
		info, err := metrics.Describe(t)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Metrics = append(resp.Metrics, info)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleEvaluate runs the posted suite against the posted panels, stores
// the report and returns it.
func (h *Handlers) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req EvaluateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Observations == nil || req.Forecast == nil {
		writeError(w, http.StatusBadRequest, "observations and forecast are required")
		return
	}

	suite := req.Suite
	if suite.Name == "" {
		suite.Name = "api"
	}
	if err := suite.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := validation.CheckMetrics(&suite); len(errs) > 0 {
		writeError(w, http.StatusBadRequest, "invalid metrics: "+strings.Join(errs, "; "))
		return
	}

	report, err := h.evaluator.Run(r.Context(), &suite, req.Observations, req.Forecast)
	if err != nil {
		writeError(w, evaluateStatus(err), err.Error())
		return
	}
	if err := h.store.Save(report); err != nil {
		// the caller still gets the report
		h.logger.Error("storing report", "run_id", report.RunID, "error", err)
	}
	writeJSON(w, http.StatusOK, report)
}

func evaluateStatus(err error) int {
	switch {
	case errors.Is(err, panel.ErrValidation), errors.Is(err, panel.ErrShapeMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HandleSummary returns aggregate counts across all runs.
func (h *Handlers) HandleSummary(w http.ResponseWriter, _ *http.Request) {
	summary, err := h.store.Summary()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleRuns returns a list of all runs, with optional sort/order query params.
func (h *Handlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	sortField := r.URL.Query().Get("sort")
	order := r.URL.Query().Get("order")

	runs, err := h.store.ListRuns(sortField, order)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// HandleRunDetail returns the full report of a run.
func (h *Handlers) HandleRunDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		// Fallback: extract from URL path for compatibility.
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/runs/"), "/")
		if len(parts) > 0 {
			id = parts[0]
		}
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "run id is required")
		return
	}

	report, err := h.store.GetRun(id)
	if err != nil {
		if errors.Is(err, ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, h *Handlers) {
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"GET /api/health", h.HandleHealth},
		{"GET /api/metrics", h.HandleMetrics},
		{"POST /api/evaluate", h.HandleEvaluate},
		{"GET /api/summary", h.HandleSummary},
		{"GET /api/runs", h.HandleRuns},
		{"GET /api/runs/{id}", h.HandleRunDetail},
	}
	for _, rt := range routes {
		mux.Handle(rt.pattern, Instrument(rt.pattern, rt.handler))
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Instrument counts requests per route and status code.
func Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		telemetry.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
