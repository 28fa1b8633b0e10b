// Package main provides trainingctl, the operator CLI for the training data pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/observability"
	"github.com/Aftab48/Haemologix-sub000/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "trainingctl",
	Short: "Manage Haemologix training examples",
	Long:  "trainingctl exports captured decisions as train/validation datasets, seeds synthetic bootstrap data, reports dataset statistics and migrates the training store.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		appConfig = cfg
		observability.InitLogger("trainingctl", cfg.Environment, cfg.LogLevel)
		return nil
	},
	SilenceUsage: true,
}

// appConfig is loaded once per invocation before any subcommand runs.
var appConfig *config.Config

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// An interrupted export rolls back and leaves its examples unused
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
