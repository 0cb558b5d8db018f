package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/spboyer/probscore/internal/metrics"
	"github.com/spboyer/probscore/internal/models"
	"github.com/spboyer/probscore/internal/panel"
	"github.com/spboyer/probscore/internal/statistics"
	"github.com/spboyer/probscore/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

//go:generate go run go.uber.org/mock/mockgen -package orchestration -destination metric_mock_test.go github.com/spboyer/probscore/internal/metrics Metric

// MetricFactory builds a metric from the type, name and loosely typed
// parameters of a suite entry.
type MetricFactory func(t metrics.Type, name string, params map[string]any) (metrics.Metric, error)

const defaultWorkers = 4

// Runner evaluates the metrics of a suite against one observations and
// forecast pair.
type Runner struct {
	workers   int
	defaults  metrics.Options
	byIndex   bool
	bootstrap *models.BootstrapConfig
	factory   MetricFactory
	logger    *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers bounds the number of metrics evaluated concurrently.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithDefaults sets the aggregation options used when neither the suite nor
// the metric entry sets them.
func WithDefaults(opts metrics.Options) RunnerOption {
	return func(r *Runner) {
		r.defaults = opts
	}
}

// WithByIndex attaches the per-time-point frame to every result.
func WithByIndex(enabled bool) RunnerOption {
	return func(r *Runner) {
		r.byIndex = enabled
	}
}

// WithBootstrap enables bootstrap confidence intervals unless the suite
// configures its own.
func WithBootstrap(cfg *models.BootstrapConfig) RunnerOption {
	return func(r *Runner) {
		r.bootstrap = cfg
	}
}

// WithFactory replaces metrics.Create.
func WithFactory(f MetricFactory) RunnerOption {
	return func(r *Runner) {
		r.factory = f
	}
}

// WithLogger sets the logger for per-metric debug output.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a new suite runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		workers:  defaultWorkers,
		defaults: metrics.DefaultOptions(),
		factory:  metrics.Create,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// runPlan is the resolved configuration of one Run.
type runPlan struct {
	options   metrics.Options
	workers   int
	byIndex   bool
	bootstrap *models.BootstrapConfig
}

func (r *Runner) plan(cfg models.SuiteConfig) runPlan {
	p := runPlan{
		options:   r.defaults,
		workers:   r.workers,
		byIndex:   r.byIndex || cfg.ByIndex,
		bootstrap: r.bootstrap,
	}
	if cfg.ScoreAverage != nil {
		p.options.ScoreAverage = *cfg.ScoreAverage
	}
	if cfg.Multioutput != "" {
		p.options.Multioutput = metrics.Multioutput(cfg.Multioutput)
	}
	if cfg.Workers > 0 {
		p.workers = cfg.Workers
	}
	if cfg.Bootstrap != nil {
		p.bootstrap = cfg.Bootstrap
	}
	return p
}

// params layers the entry's parameters over the resolved options.
func (p runPlan) params(spec models.MetricSpec) map[string]any {
	params := map[string]any{
		"score_average": p.options.ScoreAverage,
		"multioutput":   string(p.options.Multioutput),
	}
	maps.Copy(params, spec.Params)
	return params
}

// Run evaluates every metric of the suite. Metric failures are recorded in
// the report; only invalid panels and cancellation return an error.
// Results keep the order of the suite.
func (r *Runner) Run(ctx context.Context, suite *models.Suite, obs *panel.Observations, fc *panel.Forecast) (*models.EvaluationReport, error) {
	startTime := time.Now()

	if err := obs.Validate(); err != nil {
		return nil, fmt.Errorf("observations: %w", err)
	}
	if err := fc.Validate(); err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	if err := panel.Align(obs, fc); err != nil {
		return nil, err
	}
	telemetry.PanelRows.Observe(float64(fc.Len()))

	plan := r.plan(suite.Config)
	r.logger.Debug("Running suite", "suite", suite.Name, "metrics", len(suite.Metrics), "workers", plan.workers, "rows", fc.Len())

	results := make([]models.MetricResult, len(suite.Metrics))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(plan.workers)
	for i, spec := range suite.Metrics {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.evaluate(spec, plan, obs, fc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &models.EvaluationReport{
		RunID:     uuid.NewString(),
		SuiteName: suite.Name,
		Timestamp: startTime.UTC(),
		Setup: models.ReportSetup{
			ForecastKind: string(fc.Kind),
			Rows:         fc.Len(),
			Variables:    fc.Variables(),
			Workers:      plan.workers,
		},
		Results: results,
	}
	report.Summarize(time.Since(startTime))
	return report, nil
}

func (r *Runner) evaluate(spec models.MetricSpec, plan runPlan, obs *panel.Observations, fc *panel.Forecast) (res models.MetricResult) {
	start := time.Now()
	res = models.MetricResult{Name: spec.DisplayName(), Type: spec.Type}
	// spec.Type is caller input; only a constructed metric names a series.
	label := telemetry.UnknownMetric

	defer func() {
		elapsed := time.Since(start)
		res.DurationMs = elapsed.Milliseconds()
		telemetry.ObserveEvaluation(label, string(res.Status), elapsed)
		r.logger.Debug("Metric evaluated", "metric", res.Name, "status", res.Status, "duration", elapsed)
	}()

	m, err := r.factory(metrics.Type(spec.Type), spec.Name, plan.params(spec))
	if err != nil {
		return failed(res, err)
	}
	label = string(m.Type())
	res.LowerIsBetter = m.LowerIsBetter()
	res.Params = m.Params()

	score, err := m.Evaluate(obs, fc)
	if err != nil {
		return failed(res, err)
	}
	setScore(&res, score)

	if plan.byIndex {
		byIndex, err := m.EvaluateByIndex(obs, fc)
		if err != nil {
			return failed(res, err)
		}
		res.ByIndex = indexedValues(byIndex)
	}

	if plan.bootstrap != nil && plan.bootstrap.Enabled {
		if err := r.attachBootstrap(&res, spec, plan, obs, fc); err != nil {
			return failed(res, err)
		}
	}

	checks, err := runChecks(spec.Threshold, m, score)
	if err != nil {
		return failed(res, err)
	}
	res.Checks = checks
	res.Status = models.StatusPassed
	for _, c := range checks {
		if !c.Passed {
			res.Status = models.StatusFailed
			break
		}
	}
	return res
}

// attachBootstrap scores the fully averaged per-time-point series of the
// metric and resamples it.
func (r *Runner) attachBootstrap(res *models.MetricResult, spec models.MetricSpec, plan runPlan, obs *panel.Observations, fc *panel.Forecast) error {
	params := plan.params(spec)
	params["score_average"] = true
	params["multioutput"] = string(metrics.UniformAverage)

	m, err := r.factory(metrics.Type(spec.Type), spec.Name, params)
	if err != nil {
		return err
	}
	byIndex, err := m.EvaluateByIndex(obs, fc)
	if err != nil {
		return err
	}

	series := byIndex.Series()
	res.Series = models.Floats(series)
	if statistics.HasInfinite(series) {
		r.logger.Debug("Bootstrap skipped: series has infinite scores", "metric", res.Name)
		return nil
	}
	ci := statistics.BootstrapCI(series, statistics.BootstrapOptions{
		ConfidenceLevel: plan.bootstrap.ConfidenceLevel,
		Iterations:      plan.bootstrap.Iterations,
		Seed:            plan.bootstrap.Seed,
	})
	if ci.SampleSize > 0 {
		res.CI = &ci
	}
	return nil
}

func failed(res models.MetricResult, err error) models.MetricResult {
	res.Status = models.StatusError
	res.Error = err.Error()
	return res
}

func setScore(res *models.MetricResult, score *metrics.Score) {
	res.Axis = string(score.Axis)
	if score.IsScalar() {
		res.Value = models.Float(score.Value)
		return
	}
	res.Entries = make([]models.Entry, len(score.Values))
	for i, l := range score.Labels {
		e := models.Entry{
			Label:    score.Axis.Format(l),
			Variable: l.Variable,
			Value:    models.Float(score.Values[i]),
		}
		if score.Axis != metrics.AxisVariable {
			e.Score = models.Float(l.Score)
		}
		res.Entries[i] = e
	}
}

func indexedValues(s *metrics.IndexedScore) *models.IndexedValues {
	out := &models.IndexedValues{
		Index:  s.Index,
		Values: make([][]*float64, len(s.Values)),
	}
	if !s.IsSeries() {
		out.Columns = make([]string, len(s.Labels))
		for j, l := range s.Labels {
			out.Columns[j] = s.Axis.Format(l)
		}
	}
	for t, row := range s.Values {
		out.Values[t] = models.Floats(row)
	}
	return out
}
