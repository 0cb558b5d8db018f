package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spboyer/probscore/internal/projectconfig"
	"github.com/spboyer/probscore/internal/webserver"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	host           string
	port           int
	resultsDir     string
	allowedOrigins []string
	allowRemote    bool
}

func newServeCommand() *cobra.Command {
	var o serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the evaluation HTTP API",
		Long: `Start an HTTP server exposing the evaluation API.

Endpoints:
  GET  /api/health      Health check
  GET  /api/metrics     Available metric types and their defaults
  POST /api/evaluate    Evaluate a suite against posted panels
  GET  /api/runs        Stored reports (sort=timestamp|duration|failed|rows, order=asc|desc)
  GET  /api/runs/{id}   One stored report
  GET  /api/summary     Aggregate counts over stored reports
  GET  /metrics         Prometheus metrics

Reports are stored as JSON in the results directory. The server binds to
127.0.0.1 unless --allow-remote is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := projectconfig.Load(wd)
			if err != nil {
				return err
			}
			return runServe(cmd, cfg, o)
		},
	}

	cmd.Flags().StringVar(&o.host, "host", "127.0.0.1", "Address to bind")
	cmd.Flags().IntVar(&o.port, "port", 0, "Port to listen on (default: server.port)")
	cmd.Flags().StringVar(&o.resultsDir, "results", "", "Directory for stored reports (default: paths.results)")
	cmd.Flags().StringArrayVar(&o.allowedOrigins, "allow-origin", nil, "Origin allowed by CORS (can be repeated)")
	cmd.Flags().BoolVar(&o.allowRemote, "allow-remote", false,
		"Allow binding to non-loopback addresses (WARNING: the API has no authentication)")

	return cmd
}

func runServe(cmd *cobra.Command, cfg *projectconfig.ProjectConfig, o serveOptions) error {
	logger := slog.Default()

	host := o.host
	if !o.allowRemote && host != "127.0.0.1" && host != "localhost" && host != "::1" {
		return fmt.Errorf("refusing to bind %s without --allow-remote", host)
	}
	if o.allowRemote {
		logger.Warn("HTTP server binding to a non-loopback address; no authentication is provided", "host", host)
	}
	port := cfg.Server.Port
	if o.port > 0 {
		port = o.port
	}
	resultsDir := cfg.Paths.Results
	if o.resultsDir != "" {
		resultsDir = o.resultsDir
	}

	eval := &evalOptions{}
	runner, err := newRunner(cfg, eval, false)
	if err != nil {
		return err
	}

	srv, err := webserver.New(webserver.Config{
		Host:           host,
		Port:           port,
		ResultsDir:     resultsDir,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		AllowedOrigins: o.allowedOrigins,
		Evaluator:      runner,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.ErrOrStderr(), "probscore API: http://%s\n", srv.Addr())
	return srv.ListenAndServe(ctx)
}
