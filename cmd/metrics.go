package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/sells-group/wolf-eval/internal/eval"
	"github.com/sells-group/wolf-eval/internal/export"
)

var metricsJSON bool

var metricsCmd = &cobra.Command{
	Use:   "metrics [results-dir-or-file]",
	Short: "Recompute per-condition accuracy from an exported llm_outputs.json",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Export.Dir
		if len(args) == 1 {
			path = args[0]
		}

		rows, err := export.ReadRows(path)
		if err != nil {
			return err
		}
		metrics := eval.Aggregate(rows)

		if metricsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(metrics)
		}
		printSummary(cmd.OutOrStdout(), metrics, eval.ErrorCount(rows))
		return nil
	},
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "print metrics as JSON")
	rootCmd.AddCommand(metricsCmd)
}
