package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/observability"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the training_examples table and its index",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx, appConfig)
	if err != nil {
		return err
	}
	defer b.close()

	if b.migrator == nil {
		return fmt.Errorf("training store %q has no schema to migrate", appConfig.Training.Store)
	}
	if err := b.migrator.Migrate(ctx); err != nil {
		return err
	}
	observability.GetLogger().Info().Msg("training_examples schema is up to date")
	fmt.Fprintln(cmd.OutOrStdout(), "migrated")
	return nil
}
