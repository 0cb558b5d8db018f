package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spboyer/probscore/internal/projectconfig"
	"github.com/spboyer/probscore/internal/validation"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file ...]",
		Short: "Validate suite and project configuration files",
		Long: `Validate suite files against the suite schema and build every metric they
declare. Files named .probscore.yaml are validated against the project schema.

Without arguments, the suite named in .probscore.yaml is validated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				cfg, err := projectconfig.Load(wd)
				if err != nil {
					return err
				}
				args = []string{cfg.Paths.Suite}
			}
			return validateFiles(cmd.OutOrStdout(), args)
		},
	}
	return cmd
}

func validateFiles(w io.Writer, paths []string) error {
	invalid := 0
	for _, path := range paths {
		problems, err := validateFile(path)
		if err != nil {
			return err
		}
		if len(problems) == 0 {
			fmt.Fprintf(w, "✓ %s\n", path)
			continue
		}
		invalid++
		fmt.Fprintf(w, "✗ %s\n", path)
		for _, p := range problems {
			fmt.Fprintf(w, "    %s\n", p)
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d file(s) failed validation", invalid, len(paths))
	}
	return nil
}

func validateFile(path string) ([]string, error) {
	if filepath.Base(path) != projectconfig.FileName {
		return validation.ValidateSuiteFile(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}
	return validation.ValidateProjectBytes(data), nil
}
