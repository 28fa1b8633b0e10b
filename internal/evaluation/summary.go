package evaluation

import (
	"context"
	"fmt"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/repositories"
)

// Summarize computes per-task dataset statistics.
func Summarize(examples []*entities.TrainingExample) *DatasetSummary {
	summary := &DatasetSummary{ByTask: make(map[entities.TaskType]*TaskSummary)}
	for _, e := range examples {
		if e == nil || e.Payload == nil {
			continue
		}
		ts := summary.Task(e.TaskType())
		summary.TotalExamples++
		ts.Count++

		if !e.UsedForTraining {
			summary.Unused++
			ts.Unused++
		}
		if e.Outcome != nil {
			summary.WithOutcome++
			ts.WithOutcome++
			if e.Outcome.Success {
				ts.Successes++
			}
		}
		if e.Source == entities.ExampleSourceSynthetic {
			ts.Synthetic++
		}

		label, source := LabelOf(e.Payload)
		ts.Labels[label]++
		if source == entities.SourceModel {
			ts.ModelDecisions++
		}
	}

	for _, ts := range summary.ByTask {
		ts.SuccessRate = Rate(ts.Successes, ts.WithOutcome)
		ts.SyntheticShare = Rate(ts.Synthetic, ts.Count)
		ts.ModelShare = Rate(ts.ModelDecisions, ts.Count)
	}
	return summary
}

// LabelOf reduces a payload's label to a class name and reports who decided it.
// Selection tasks are classed by the rank of the chosen option.
func LabelOf(p entities.Payload) (string, entities.DecisionSource) {
	switch v := p.(type) {
	case *entities.DonorSelectionPayload:
		return fmt.Sprintf("rank_%d", v.Label.SelectedIndex), v.Label.DecisionSource
	case *entities.UrgencyAssessmentPayload:
		return string(v.Label.Urgency), v.Label.DecisionSource
	case *entities.InventorySelectionPayload:
		return fmt.Sprintf("rank_%d", v.Label.SelectedIndex), v.Label.DecisionSource
	case *entities.TransportPlanningPayload:
		return string(v.Label.Method), v.Label.DecisionSource
	case *entities.EligibilityAnalysisPayload:
		if v.Label.Eligible {
			return "eligible", v.Label.DecisionSource
		}
		return "ineligible", v.Label.DecisionSource
	}
	return "unknown", ""
}

// ExampleLister is the slice of the training store that Collect needs.
type ExampleLister interface {
	List(ctx context.Context, filter repositories.TrainingExampleFilter) ([]*entities.TrainingExample, error)
}

// Collect summarizes every stored example of the given task, or all tasks when task is empty.
func Collect(ctx context.Context, repo ExampleLister, task entities.TaskType) (*DatasetSummary, error) {
	examples, err := repo.List(ctx, repositories.TrainingExampleFilter{TaskType: task})
	if err != nil {
		return nil, fmt.Errorf("failed to list training examples: %w", err)
	}
	return Summarize(examples), nil
}
