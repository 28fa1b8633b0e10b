package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	"github.com/Aftab48/Haemologix-sub000/internal/evaluation"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report training dataset statistics",
	RunE:  runStats,
}

var (
	statsTask       string
	statsJSON       bool
	statsFile       string
	statsMinPerTask int
)

func init() {
	statsCmd.Flags().StringVar(&statsTask, "task", "", "Restrict to one task type")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print the summary as JSON")
	statsCmd.Flags().StringVar(&statsFile, "file", "", "Summarize an exported dataset file instead of the store")
	statsCmd.Flags().IntVar(&statsMinPerTask, "min-per-task", 100, "Warn when a task has fewer examples")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	var task entities.TaskType
	if statsTask != "" {
		t, err := entities.ParseTaskType(statsTask)
		if err != nil {
			return err
		}
		task = t
	}

	var summary *evaluation.DatasetSummary
	if statsFile != "" {
		examples, err := evaluation.LoadExportFile(statsFile)
		if err != nil {
			return err
		}
		if task != "" {
			filtered := examples[:0]
			for _, e := range examples {
				if e.TaskType() == task {
					filtered = append(filtered, e)
				}
			}
			examples = filtered
		}
		summary = evaluation.Summarize(examples)
	} else {
		b, err := openBackend(ctx, appConfig)
		if err != nil {
			return err
		}
		defer b.close()
		summary, err = evaluation.Collect(ctx, b.store, task)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if statsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Fprintf(out, "%-22s %7s %7s %8s %9s %9s  %s\n", "task", "count", "unused", "success", "synthetic", "model", "top label")
	for _, t := range entities.AllTaskTypes() {
		ts, ok := summary.ByTask[t]
		if !ok {
			continue
		}
		label, share := evaluation.TopLabel(ts.Labels)
		fmt.Fprintf(out, "%-22s %7d %7d %8.3f %9.3f %9.3f  %s (%.2f)\n",
			t, ts.Count, ts.Unused, ts.SuccessRate, ts.SyntheticShare, ts.ModelShare, label, share)
	}
	fmt.Fprintf(out, "total %d examples, %d unused, %d with outcome\n", summary.TotalExamples, summary.Unused, summary.WithOutcome)

	if task == "" {
		guard := evaluation.NewGuardrails(evaluation.GuardrailConfig{MinExamplesPerTask: statsMinPerTask})
		for _, w := range guard.Check(summary) {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
	}
	return nil
}
