package repositories

import (
	"context"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
)

// TrainingExampleFilter narrows List queries. Zero values mean "any".
type TrainingExampleFilter struct {
	TaskType        entities.TaskType
	Source          entities.ExampleSource
	UsedForTraining *bool
	Limit           int
}

// TaskCounts summarizes stored examples for one task type.
type TaskCounts struct {
	Total  int `json:"total"`
	Unused int `json:"unused"`
}

// ExportBatchFunc receives the claimed batch in creation order. Returning an
// error abandons the claim and leaves every example unused.
type ExportBatchFunc func(ctx context.Context, batch []*entities.TrainingExample) error

// TrainingExampleRepository defines the interface for training example persistence
type TrainingExampleRepository interface {
	Create(ctx context.Context, example *entities.TrainingExample) error
	CreateBatch(ctx context.Context, examples []*entities.TrainingExample) error

	// List returns matching examples ordered by creation time, oldest first.
	List(ctx context.Context, filter TrainingExampleFilter) ([]*entities.TrainingExample, error)
	ListUnused(ctx context.Context, taskType entities.TaskType, limit int) ([]*entities.TrainingExample, error)
	CountByTask(ctx context.Context) (map[entities.TaskType]TaskCounts, error)

	// ExportBatch claims every unused example of taskType, hands them to fn and,
	// only if fn succeeds, marks exactly those examples used. Concurrent callers
	// never receive the same example. It returns how many examples were marked.
	ExportBatch(ctx context.Context, taskType entities.TaskType, fn ExportBatchFunc) (int, error)
}
