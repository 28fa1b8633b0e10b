package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/providers"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/repositories"
	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/observability"
	"github.com/Aftab48/Haemologix-sub000/pkg/config"
	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

// AllTasks selects every task type in an ExportRequest.
const AllTasks = "all"

// Split names used in file names and metrics
const (
	SplitTrain      = "train"
	SplitValidation = "validation"
	SplitFull       = "full"
)

const exportStampLayout = "20060102T150405.000Z"

// ExportRequest selects what to export and where.
type ExportRequest struct {
	TaskType   string
	OutputDir  string
	SplitRatio float64
}

// ExportedFile is one dataset file written by an export.
type ExportedFile struct {
	Path    string `json:"path"`
	Split   string `json:"split"`
	Records int    `json:"records"`
}

// TaskExport is the result of exporting one task type.
type TaskExport struct {
	TaskType entities.TaskType `json:"task_type"`
	Records  int               `json:"records"`
	Skipped  bool              `json:"skipped"`
	Files    []ExportedFile    `json:"files,omitempty"`
}

// ExportReport summarizes an export run.
type ExportReport struct {
	Tasks []TaskExport `json:"tasks"`
	Total int          `json:"total"`
}

// DatasetExporter writes unused training examples to dataset files and marks
// them used once the files are in place.
type DatasetExporter struct {
	repo       repositories.TrainingExampleRepository
	locks      providers.LockProvider
	lockTTL    time.Duration
	defaultDir string
	metrics    *observability.Metrics
	now        func() time.Time
}

// NewDatasetExporter creates an exporter. locks may be nil, in which case
// only the repository's row claiming guards concurrent exports.
func NewDatasetExporter(repo repositories.TrainingExampleRepository, locks providers.LockProvider, cfg config.TrainingConfig, metrics *observability.Metrics) *DatasetExporter {
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DatasetExporter{
		repo:       repo,
		locks:      locks,
		lockTTL:    ttl,
		defaultDir: cfg.ExportDir,
		metrics:    metrics,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Export runs one export. Task types of an "all" request run concurrently;
// the first failure is returned together with the partial report.
func (x *DatasetExporter) Export(ctx context.Context, req ExportRequest) (*ExportReport, error) {
	if req.SplitRatio < 0 || req.SplitRatio > 1 || math.IsNaN(req.SplitRatio) {
		return nil, apperrors.NewValidationErrorf("split ratio must be within [0,1], got %v", req.SplitRatio)
	}
	tasks, err := exportTasks(req.TaskType)
	if err != nil {
		return nil, err
	}
	dir := req.OutputDir
	if dir == "" {
		dir = x.defaultDir
	}
	if dir == "" {
		return nil, apperrors.NewValidationError("output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewInternalError("failed to create export directory", err)
	}

	stamp := x.now().Format(exportStampLayout)
	results := make([]TaskExport, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	for i, task := range tasks {
		g.Go(func() error {
			result, err := x.exportTask(gctx, task, dir, req.SplitRatio, stamp)
			results[i] = result
			return err
		})
	}
	err = g.Wait()

	report := &ExportReport{Tasks: results}
	for _, r := range results {
		report.Total += r.Records
	}
	return report, err
}

func exportTasks(raw string) ([]entities.TaskType, error) {
	if raw == "" || raw == AllTasks {
		return entities.AllTaskTypes(), nil
	}
	task, err := entities.ParseTaskType(raw)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	return []entities.TaskType{task}, nil
}

func (x *DatasetExporter) exportTask(ctx context.Context, task entities.TaskType, dir string, ratio float64, stamp string) (TaskExport, error) {
	result := TaskExport{TaskType: task}
	logger := observability.LoggerFromContext(ctx).With().Str("task_type", string(task)).Logger()

	if x.locks != nil {
		lock, err := x.locks.Acquire(ctx, "training-export:"+string(task), x.lockTTL)
		if err != nil {
			if errors.Is(err, providers.ErrLockHeld) {
				return result, apperrors.NewConflictError(fmt.Sprintf("export of %s is already running", task))
			}
			return result, apperrors.NewInternalError("failed to acquire export lock", err)
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn().Err(err).Msg("failed to release export lock")
			}
		}()
	}

	var files []ExportedFile
	n, err := x.repo.ExportBatch(ctx, task, func(ctx context.Context, batch []*entities.TrainingExample) error {
		records := make([]entities.ExportRecord, len(batch))
		for i, e := range batch {
			r, err := entities.NewExportRecord(e)
			if err != nil {
				return apperrors.NewInternalError(fmt.Sprintf("failed to encode example %s", e.ID), err)
			}
			records[i] = r
		}

		for _, part := range splitRecords(records, ratio) {
			path := filepath.Join(dir, datasetFileName(task, stamp, part.split))
			if err := writeJSONFile(path, part.records); err != nil {
				removeFiles(files)
				files = nil
				return apperrors.NewInternalError("failed to write dataset file", err)
			}
			files = append(files, ExportedFile{Path: path, Split: part.split, Records: len(part.records)})
		}
		return nil
	})
	if err != nil {
		// the files exist but the examples were not marked, so they must go
		removeFiles(files)
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			err = apperrors.NewInternalError(fmt.Sprintf("export of %s failed", task), err)
		}
		logger.Error().Err(err).Msg("training data export failed")
		return result, err
	}

	if n == 0 {
		result.Skipped = true
		logger.Info().Msg("no unused training examples, skipping export")
		return result, nil
	}

	result.Records = n
	result.Files = files
	for _, f := range files {
		x.metrics.RecordExport(ctx, string(task), f.Split, f.Records)
	}
	logger.Info().Int("records", n).Int("files", len(files)).Msg("exported training examples")
	return result, nil
}

type recordSplit struct {
	split   string
	records []entities.ExportRecord
}

// splitRecords keeps creation order: train is the first floor(n*ratio)
// records. Ratios 0 and 1 produce a single unsplit file.
func splitRecords(records []entities.ExportRecord, ratio float64) []recordSplit {
	if ratio <= 0 || ratio >= 1 {
		return []recordSplit{{split: SplitFull, records: records}}
	}
	cut := int(math.Floor(float64(len(records)) * ratio))
	return []recordSplit{
		{split: SplitTrain, records: records[:cut]},
		{split: SplitValidation, records: records[cut:]},
	}
}

func datasetFileName(task entities.TaskType, stamp, split string) string {
	if split == SplitFull {
		return fmt.Sprintf("%s_%s.json", task, stamp)
	}
	return fmt.Sprintf("%s_%s_%s.json", task, stamp, split)
}

// writeJSONFile writes v as an indented JSON document to a temp file in the
// target directory and renames it into place. Existing files are never replaced.
func writeJSONFile(path string, v any) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func removeFiles(files []ExportedFile) {
	for _, f := range files {
		_ = os.Remove(f.Path)
	}
}
