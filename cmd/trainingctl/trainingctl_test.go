package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aftab48/Haemologix-sub000/internal/adapters/database"
	"github.com/Aftab48/Haemologix-sub000/internal/adapters/locks"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	"github.com/Aftab48/Haemologix-sub000/pkg/config"
	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

// useMemoryBackend points every command at one shared in-memory store.
func useMemoryBackend(t *testing.T) *database.MemoryTrainingExampleStore {
	t.Helper()
	t.Setenv("TRAINING_STORE", config.StoreMemory)
	store := database.NewMemoryTrainingExampleStore()
	lockProvider := locks.NewMemoryLockProvider()

	previous := openBackend
	openBackend = func(ctx context.Context, cfg *config.Config) (*backend, error) {
		return &backend{store: store, locks: lockProvider, close: func() {}}, nil
	}
	t.Cleanup(func() { openBackend = previous })
	return store
}

// run executes trainingctl in-process. Flag values persist between cobra
// executions, so every subcommand's flags are reset first.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerate_DryRunWritesRecords(t *testing.T) {
	store := useMemoryBackend(t)

	out, err := run(t, "generate", "--dry-run", "--per-task", "3", "--seed", "7")
	require.NoError(t, err)

	var records []entities.ExportRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	assert.Len(t, records, 15)
	for _, r := range records {
		assert.True(t, strings.HasPrefix(r.ID, "syn-"), r.ID)
		assert.True(t, r.TaskType.Valid())
	}

	counts, err := store.CountByTask(context.Background())
	require.NoError(t, err)
	assert.Empty(t, counts, "dry run must not store anything")
}

func TestGenerate_DryRunToFileIsLoadable(t *testing.T) {
	useMemoryBackend(t)
	path := filepath.Join(t.TempDir(), "synthetic.json")

	_, err := run(t, "generate", "--dry-run", "--per-task", "4", "--seed", "11", "--out", path)
	require.NoError(t, err)

	out, err := run(t, "stats", "--file", path, "--json")
	require.NoError(t, err)
	var summary struct {
		TotalExamples int `json:"total_examples"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 20, summary.TotalExamples)
}

func TestGenerate_OutRequiresDryRun(t *testing.T) {
	useMemoryBackend(t)

	_, err := run(t, "generate", "--out", "x.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--dry-run")
}

func TestGenerateExportStats_RoundTrip(t *testing.T) {
	store := useMemoryBackend(t)
	dir := t.TempDir()

	out, err := run(t, "generate", "--per-task", "10", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "transport_planning")

	out, err = run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "total 50 examples, 50 unused")
	assert.Contains(t, out, "warning: donor_selection: 10 examples, need at least 100")

	out, err = run(t, "export", "--task", "donor-selection", "--out", dir, "--split", "0.8")
	require.NoError(t, err)
	assert.Contains(t, out, `"total": 10`)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	counts, err := store.CountByTask(context.Background())
	require.NoError(t, err)
	assert.Zero(t, counts[entities.TaskDonorSelection].Unused)
	assert.Equal(t, 10, counts[entities.TaskUrgencyAssessment].Unused)
}

func TestExport_RejectsBadSplit(t *testing.T) {
	useMemoryBackend(t)

	_, err := run(t, "export", "--out", t.TempDir(), "--split", "1.5")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestMigrate_MemoryStoreHasNoSchema(t *testing.T) {
	useMemoryBackend(t)

	_, err := run(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema")
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"export", "generate", "stats", "migrate"} {
		assert.True(t, names[want], want)
	}
}
