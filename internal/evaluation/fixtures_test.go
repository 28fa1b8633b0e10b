package evaluation

import (
	"time"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func transportExample(id string, method entities.TransportMethod, outcome *entities.Outcome, source entities.ExampleSource) *entities.TrainingExample {
	return &entities.TrainingExample{
		ID: id,
		Payload: &entities.TransportPlanningPayload{
			Features: entities.TransportPlanningFeatures{DistanceKm: 12, Urgency: entities.UrgencyHigh, Units: 2, TrafficLevel: "moderate"},
			Label:    entities.TransportPlanningLabel{Method: method, ETAMinutes: 30, DecisionSource: entities.SourceHeuristic},
		},
		Outcome:   outcome,
		Source:    source,
		CreatedAt: baseTime,
	}
}

func eligibilityExample(id string, eligible bool, decidedBy entities.DecisionSource) *entities.TrainingExample {
	return &entities.TrainingExample{
		ID: id,
		Payload: &entities.EligibilityAnalysisPayload{
			Label: entities.EligibilityAnalysisLabel{Eligible: eligible, DecisionSource: decidedBy},
		},
		Source:    entities.ExampleSourceLive,
		CreatedAt: baseTime,
	}
}
