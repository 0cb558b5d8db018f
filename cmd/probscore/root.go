package main

import (
	"log/slog"

	"github.com/spboyer/probscore/internal/webapi"
	"github.com/spf13/cobra"
)

var version = webapi.Version

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probscore",
		Short: "probscore - scoring for probabilistic forecasts",
		Long: `probscore evaluates quantile and prediction-interval forecasts against
observed values.

It computes pinball loss, empirical coverage, interval width and constraint
violation, checks the results against thresholds, and serves the same
evaluation over HTTP.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newEvalCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newMetricsCommand())
	cmd.AddCommand(newCompareCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newInitCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
