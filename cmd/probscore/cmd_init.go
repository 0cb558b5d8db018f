package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spboyer/probscore/internal/projectconfig"
	"github.com/spf13/cobra"
)

const projectTemplate = `# probscore project configuration
paths:
  suite: probscore.yaml
  results: results/
defaults:
  score_average: true
  multioutput: uniform_average
  workers: 4
  format: table
bootstrap:
  enabled: false
  confidence_level: 0.95
  iterations: 10000
  seed: 42
server:
  port: 3000
`

const suiteTemplate = `name: %s
description: Quantile and interval scores for the forecast
config:
  score_average: false
metrics:
  - name: pinball
    type: pinball_loss
    params:
      score_average: true
    threshold:
      max: 1.0
  - name: coverage
    type: empirical_coverage
    threshold:
      tolerance: 0.05
  - name: width
    type: interval_width
  - name: violation
    type: constraint_violation
`

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a probscore project",
		Long: `Initialize a probscore project.

Creates a .probscore.yaml project configuration and a probscore.yaml suite
with one entry per metric type. Existing files are kept unless --force is set.

If no directory is specified, the current directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}

			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			files := []struct {
				name    string
				content string
			}{
				{projectconfig.FileName, projectTemplate},
				{projectconfig.DefaultSuiteFile, fmt.Sprintf(suiteTemplate, filepath.Base(abs))},
			}

			out := cmd.OutOrStdout()
			for _, f := range files {
				path := filepath.Join(dir, f.name)
				if !force {
					if _, err := os.Stat(path); err == nil {
						fmt.Fprintf(out, "  skipped %s (exists)\n", path)
						continue
					} else if !errors.Is(err, fs.ErrNotExist) {
						return err
					}
				}
				if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
				fmt.Fprintf(out, "  created %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}
