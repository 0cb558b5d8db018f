package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spboyer/probscore/internal/metrics"
	"github.com/spf13/cobra"
)

func newMetricsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "List the available metric types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos := make([]metrics.Info, 0, len(metrics.Types()))
			for _, t := range metrics.Types() {
				info, err := metrics.Describe(t)
				if err != nil {
					return err
				}
				infos = append(infos, info)
			}

			switch format {
			case "table":
				printMetricsTable(cmd.OutOrStdout(), infos)
				return nil
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			default:
				return fmt.Errorf("unsupported format %q: must be table or json", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table or json")
	return cmd
}

func printMetricsTable(w io.Writer, infos []metrics.Info) {
	rows := [][]string{{"TYPE", "INPUT", "BETTER", "SELECTOR", "DEFAULTS"}}
	for _, info := range infos {
		better := "higher"
		if info.LowerIsBetter {
			better = "lower"
		}
		rows = append(rows, []string{
			string(info.Type),
			string(info.Representation),
			better,
			info.Selector,
			formatDefaults(info.Defaults),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, r := range rows {
		for j, cell := range r {
			widths[j] = max(widths[j], runewidth.StringWidth(cell))
		}
	}
	for _, r := range rows {
		cells := make([]string, len(r))
		for j, cell := range r {
			if j == len(r)-1 {
				cells[j] = cell
				continue
			}
			cells[j] = runewidth.FillRight(cell, widths[j])
		}
		fmt.Fprintln(w, strings.Join(cells, "  "))
	}
}

func formatDefaults(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, params[k])
	}
	return strings.Join(parts, " ")
}
