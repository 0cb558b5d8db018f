package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spboyer/probscore/internal/dataset"
	"github.com/spboyer/probscore/internal/models"
	"github.com/spboyer/probscore/internal/orchestration"
	"github.com/spboyer/probscore/internal/projectconfig"
	"github.com/spboyer/probscore/internal/reporting"
	"github.com/spboyer/probscore/internal/spinner"
	"github.com/spboyer/probscore/internal/validation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type evalOptions struct {
	observed   string
	forecast   string
	suitePath  string
	metrics    []string
	params     []string
	only       []string
	byIndex    bool
	format     string
	outputPath string
	ci         float64
	workers    int
	interpret  bool
}

func newEvalCommand() *cobra.Command {
	var o evalOptions

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a forecast against observations",
		Long: `Evaluate a forecast panel against observed values.

Metrics come from a suite file (--suite, or the suite named in .probscore.yaml)
or from --metric flags. Each --metric takes a metric type, optionally named as
name=type; --param key=value applies to every --metric. Values are parsed as
YAML, so --param alpha=[0.05,0.95] sets a list.

Exits with code 1 when a threshold check fails or a metric cannot be
evaluated.`,
		Example: `  probscore eval --observed y.csv --forecast q.csv --metric pinball_loss
  probscore eval --observed y.csv --forecast q.csv --metric p90=pinball_loss --param alpha=0.9
  probscore eval --observed y.csv --forecast i.csv --suite nightly.yaml --ci 0.95 --format junit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runEval(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), &o, cmd.Flags().Changed("by-index"))
		},
	}

	cmd.Flags().StringVar(&o.observed, "observed", "", "Observations file (.csv or .json)")
	cmd.Flags().StringVar(&o.forecast, "forecast", "", "Forecast panel file (.csv or .json)")
	cmd.Flags().StringVarP(&o.suitePath, "suite", "s", "", "Suite file (default: paths.suite from .probscore.yaml)")
	cmd.Flags().StringArrayVarP(&o.metrics, "metric", "m", nil, "Metric type to evaluate, optionally name=type (can be repeated)")
	cmd.Flags().StringArrayVarP(&o.params, "param", "p", nil, "Metric parameter key=value for --metric (can be repeated)")
	cmd.Flags().StringArrayVar(&o.only, "only", nil, "Only run metrics whose name or type matches the glob (can be repeated)")
	cmd.Flags().BoolVar(&o.byIndex, "by-index", false, "Include per-time-point values")
	cmd.Flags().StringVarP(&o.format, "format", "f", "", "Output format: table, json or junit (default: defaults.format)")
	cmd.Flags().StringVarP(&o.outputPath, "output", "o", "", "Also write the JSON report to this file")
	cmd.Flags().Float64Var(&o.ci, "ci", 0, "Attach bootstrap confidence intervals at this level, e.g. 0.95")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "Number of concurrent metric evaluations (default: defaults.workers)")
	cmd.Flags().BoolVar(&o.interpret, "interpret", false, "Print a plain-language interpretation of the results")
	_ = cmd.MarkFlagRequired("observed")
	_ = cmd.MarkFlagRequired("forecast")

	return cmd
}

func runEval(ctx context.Context, w, progress io.Writer, o *evalOptions, byIndexSet bool) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := projectconfig.Load(wd)
	if err != nil {
		return err
	}

	suite, err := resolveSuite(o, cfg)
	if err != nil {
		return err
	}
	suite.Metrics, err = orchestration.FilterMetrics(suite.Metrics, o.only)
	if err != nil {
		return err
	}
	if len(suite.Metrics) == 0 {
		return fmt.Errorf("no metrics match --only %s", strings.Join(o.only, ", "))
	}

	format := o.format
	if format == "" {
		format = cfg.Defaults.Format
	}
	if o.ci != 0 && (o.ci <= 0 || o.ci >= 1) {
		return fmt.Errorf("--ci must be in (0, 1), got %g", o.ci)
	}

	obs, err := dataset.LoadObservations(o.observed)
	if err != nil {
		return fmt.Errorf("loading observations: %w", err)
	}
	fc, err := dataset.LoadForecast(o.forecast)
	if err != nil {
		return fmt.Errorf("loading forecast: %w", err)
	}

	applyFlags(suite, cfg, o)
	runner, err := newRunner(cfg, o, byIndexSet)
	if err != nil {
		return err
	}
	stop := spinner.StartOnTerminal(progress, fmt.Sprintf("Evaluating %d metrics on %d rows", len(suite.Metrics), fc.Len()))
	report, err := runner.Run(ctx, suite, obs, fc)
	stop()
	if err != nil {
		return fmt.Errorf("evaluating %s: %w", suite.Name, err)
	}
	report.Setup.Observed = o.observed
	report.Setup.Forecast = o.forecast

	if o.outputPath != "" {
		if err := saveReport(o.outputPath, report); err != nil {
			return err
		}
	}

	showFrames := o.byIndex || (!byIndexSet && *cfg.Defaults.ByIndex)
	if err := reporting.Write(w, report, format, reporting.TableOptions{
		Color:   reporting.UseColor(w),
		ByIndex: showFrames,
	}); err != nil {
		return err
	}
	if o.interpret {
		fmt.Fprintln(w)
		fmt.Fprint(w, reporting.FormatSummaryReport(report))
	}

	if d := report.Digest; d.Failed > 0 || d.Errors > 0 {
		return &CheckFailureError{
			Message: fmt.Sprintf("evaluation completed with %d failed and %d error(s)", d.Failed, d.Errors),
		}
	}
	return nil
}

// resolveSuite builds the suite from --metric flags, or loads and
// validates the suite file.
func resolveSuite(o *evalOptions, cfg *projectconfig.ProjectConfig) (*models.Suite, error) {
	if len(o.metrics) > 0 {
		if o.suitePath != "" {
			return nil, errors.New("--suite and --metric cannot be combined")
		}
		return suiteFromFlags(o.metrics, o.params)
	}
	if len(o.params) > 0 {
		return nil, errors.New("--param requires --metric")
	}

	path := o.suitePath
	if path == "" {
		path = cfg.Paths.Suite
	}
	problems, err := validation.ValidateSuiteFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && o.suitePath == "" {
			return nil, fmt.Errorf("no suite file %s found: pass --suite or --metric", path)
		}
		return nil, err
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid suite %s:\n  %s", path, strings.Join(problems, "\n  "))
	}
	return models.LoadSuite(path)
}

func suiteFromFlags(metricFlags, paramFlags []string) (*models.Suite, error) {
	params := make(map[string]any, len(paramFlags))
	for _, p := range paramFlags {
		key, raw, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q: expected key=value", p)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("invalid --param %q: %w", p, err)
		}
		params[key] = v
	}

	suite := &models.Suite{SuiteIdentity: models.SuiteIdentity{Name: "adhoc"}}
	for _, m := range metricFlags {
		spec := models.MetricSpec{Type: m}
		if name, typ, ok := strings.Cut(m, "="); ok {
			spec = models.MetricSpec{Name: name, Type: typ}
		}
		if len(params) > 0 {
			spec.Params = maps.Clone(params)
		}
		suite.Metrics = append(suite.Metrics, spec)
	}
	if err := suite.Validate(); err != nil {
		return nil, err
	}
	if problems := validation.CheckMetrics(suite); len(problems) > 0 {
		return nil, fmt.Errorf("invalid --metric:\n  %s", strings.Join(problems, "\n  "))
	}
	return suite, nil
}

// newRunner builds a runner from the project defaults.
func newRunner(cfg *projectconfig.ProjectConfig, o *evalOptions, byIndexSet bool) (*orchestration.Runner, error) {
	defaults, err := cfg.MetricOptions()
	if err != nil {
		return nil, err
	}
	byIndex := *cfg.Defaults.ByIndex
	if byIndexSet {
		byIndex = o.byIndex
	}
	return orchestration.NewRunner(
		orchestration.WithWorkers(cfg.Defaults.Workers),
		orchestration.WithDefaults(defaults),
		orchestration.WithByIndex(byIndex),
		orchestration.WithBootstrap(cfg.BootstrapSettings()),
	), nil
}

// applyFlags lets --workers and --ci override the suite and project.
func applyFlags(suite *models.Suite, cfg *projectconfig.ProjectConfig, o *evalOptions) {
	if o.workers > 0 {
		suite.Config.Workers = o.workers
	}
	if o.ci > 0 {
		b := cfg.BootstrapSettings()
		if suite.Config.Bootstrap != nil {
			b = suite.Config.Bootstrap
		}
		b.Enabled = true
		b.ConfidenceLevel = o.ci
		suite.Config.Bootstrap = b
	}
}

func saveReport(path string, report *models.EvaluationReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
