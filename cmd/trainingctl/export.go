package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aftab48/Haemologix-sub000/internal/application/services"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export unused training examples as dataset files",
	Long: "Export writes every unused example of the selected task types to JSON dataset files, " +
		"split by creation time into train and validation sets, and marks them used.",
	RunE: runExport,
}

var (
	exportTask  string
	exportOut   string
	exportSplit float64
)

func init() {
	exportCmd.Flags().StringVar(&exportTask, "task", services.AllTasks, "Task type to export, or \"all\"")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output directory (defaults to TRAINING_EXPORT_DIR)")
	exportCmd.Flags().Float64Var(&exportSplit, "split", -1, "Train share in [0,1]; 0 or 1 writes a single file (defaults to TRAINING_SPLIT_RATIO)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx, appConfig)
	if err != nil {
		return err
	}
	defer b.close()

	split := exportSplit
	if !cmd.Flags().Changed("split") {
		split = appConfig.Training.SplitRatio
	}

	exporter := services.NewDatasetExporter(b.store, b.locks, appConfig.Training, nil)
	report, err := exporter.Export(ctx, services.ExportRequest{
		TaskType:   exportTask,
		OutputDir:  exportOut,
		SplitRatio: split,
	})
	if report != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			return fmt.Errorf("failed to write report: %w", encErr)
		}
	}
	return err
}
