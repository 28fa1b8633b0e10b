package evaluation

import "github.com/Aftab48/Haemologix-sub000/internal/domain/entities"

// DatasetSummary holds aggregate statistics across all stored examples.
type DatasetSummary struct {
	TotalExamples int                                `json:"total_examples"`
	WithOutcome   int                                `json:"with_outcome"`
	Unused        int                                `json:"unused"`
	ByTask        map[entities.TaskType]*TaskSummary `json:"by_task"`
}

// TaskSummary holds statistics for one task type.
type TaskSummary struct {
	Count          int `json:"count"`
	Unused         int                                `json:"unused"`
	WithOutcome    int                                `json:"with_outcome"`
	Successes      int `json:"successes"`
	Synthetic      int `json:"synthetic"`
	ModelDecisions int `json:"model_decisions"`

	// SuccessRate is computed over examples that carry an outcome.
	SuccessRate    float64        `json:"success_rate"`
	SyntheticShare float64        `json:"synthetic_share"`
	ModelShare     float64        `json:"model_share"`
	Labels         map[string]int `json:"labels"`
}

// Task returns the summary for t, creating it if needed.
func (s *DatasetSummary) Task(t entities.TaskType) *TaskSummary {
	if s.ByTask == nil {
		s.ByTask = make(map[entities.TaskType]*TaskSummary)
	}
	ts, ok := s.ByTask[t]
	if !ok {
		ts = &TaskSummary{Labels: make(map[string]int)}
		s.ByTask[t] = ts
	}
	return ts
}
