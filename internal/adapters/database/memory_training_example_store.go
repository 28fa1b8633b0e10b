package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/repositories"
	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

// MemoryTrainingExampleStore keeps training examples in process memory. It is
// used when no database is configured and as the store in service tests.
type MemoryTrainingExampleStore struct {
	mu       sync.Mutex
	examples []*entities.TrainingExample
	index    map[string]int
	claimed  map[string]bool
	now      func() time.Time
}

// NewMemoryTrainingExampleStore creates an empty store
func NewMemoryTrainingExampleStore() *MemoryTrainingExampleStore {
	return &MemoryTrainingExampleStore{
		index:   make(map[string]int),
		claimed: make(map[string]bool),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

var _ repositories.TrainingExampleRepository = (*MemoryTrainingExampleStore)(nil)

// Create stores one example
func (s *MemoryTrainingExampleStore) Create(ctx context.Context, example *entities.TrainingExample) error {
	return s.CreateBatch(ctx, []*entities.TrainingExample{example})
}

// CreateBatch stores examples atomically; a duplicate id rejects the whole batch
func (s *MemoryTrainingExampleStore) CreateBatch(ctx context.Context, examples []*entities.TrainingExample) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewInternalError("failed to insert training examples", err)
	}
	for _, e := range examples {
		if e == nil {
			return apperrors.NewValidationError("training example is nil")
		}
		if err := e.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(examples))
	for _, e := range examples {
		if _, dup := s.index[e.ID]; dup || seen[e.ID] {
			return apperrors.NewConflictError(fmt.Sprintf("training example %s already exists", e.ID))
		}
		seen[e.ID] = true
	}
	for _, e := range examples {
		c := *e
		if c.Source == "" {
			c.Source = entities.ExampleSourceLive
		}
		s.index[c.ID] = len(s.examples)
		s.examples = append(s.examples, &c)
	}
	return nil
}

// List returns copies of matching examples, oldest first
func (s *MemoryTrainingExampleStore) List(ctx context.Context, filter repositories.TrainingExampleFilter) ([]*entities.TrainingExample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*entities.TrainingExample
	for _, e := range s.ordered() {
		if filter.TaskType != "" && e.TaskType() != filter.TaskType {
			continue
		}
		if filter.Source != "" && e.Source != filter.Source {
			continue
		}
		if filter.UsedForTraining != nil && e.UsedForTraining != *filter.UsedForTraining {
			continue
		}
		c := *e
		out = append(out, &c)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// ListUnused returns up to limit unexported examples of one task type
func (s *MemoryTrainingExampleStore) ListUnused(ctx context.Context, taskType entities.TaskType, limit int) ([]*entities.TrainingExample, error) {
	unused := false
	return s.List(ctx, repositories.TrainingExampleFilter{TaskType: taskType, UsedForTraining: &unused, Limit: limit})
}

// CountByTask returns total and unused counts per task type
func (s *MemoryTrainingExampleStore) CountByTask(ctx context.Context) (map[entities.TaskType]repositories.TaskCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[entities.TaskType]repositories.TaskCounts)
	for _, e := range s.examples {
		c := counts[e.TaskType()]
		c.Total++
		if !e.UsedForTraining {
			c.Unused++
		}
		counts[e.TaskType()] = c
	}
	return counts, nil
}

// ExportBatch claims unused examples not already claimed by a concurrent
// export, runs fn without holding the store lock, then marks them used.
func (s *MemoryTrainingExampleStore) ExportBatch(ctx context.Context, taskType entities.TaskType, fn repositories.ExportBatchFunc) (int, error) {
	s.mu.Lock()
	var batch []*entities.TrainingExample
	for _, e := range s.ordered() {
		if e.TaskType() != taskType || e.UsedForTraining || s.claimed[e.ID] {
			continue
		}
		s.claimed[e.ID] = true
		c := *e
		batch = append(batch, &c)
	}
	s.mu.Unlock()

	if len(batch) == 0 {
		return 0, nil
	}

	release := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, e := range batch {
			delete(s.claimed, e.ID)
		}
	}

	if err := fn(ctx, batch); err != nil {
		release()
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, e := range batch {
		stored := s.examples[s.index[e.ID]]
		stored.UsedForTraining = true
		stored.ExportedAt = &now
		delete(s.claimed, e.ID)
	}
	return len(batch), nil
}

// ordered returns the stored examples by creation time. Callers hold s.mu.
func (s *MemoryTrainingExampleStore) ordered() []*entities.TrainingExample {
	out := make([]*entities.TrainingExample, len(s.examples))
	copy(out, s.examples)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
