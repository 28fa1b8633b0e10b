package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/providers"
	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/observability"
	"github.com/Aftab48/Haemologix-sub000/pkg/bloodtype"
	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

// DecisionMeta describes how a decision was reached.
type DecisionMeta struct {
	Source        entities.DecisionSource `json:"source"`
	Reasoning     string                  `json:"reasoning"`
	Confidence    *float64                `json:"confidence,omitempty"`
	ModelAttempts int                     `json:"model_attempts"`
}

// DonorSelectionDecision is the chosen donor and the full ranking.
type DonorSelectionDecision struct {
	DecisionMeta
	Selected entities.ScoredDonor   `json:"selected"`
	Ranked   []entities.ScoredDonor `json:"ranked"`
}

// UrgencyDecision is the assessed urgency of one blood type's stock.
type UrgencyDecision struct {
	DecisionMeta
	Assessment entities.UrgencyAssessment `json:"assessment"`
}

// InventorySelectionDecision is the chosen source and the full ranking.
type InventorySelectionDecision struct {
	DecisionMeta
	Selected entities.ScoredInventory   `json:"selected"`
	Ranked   []entities.ScoredInventory `json:"ranked"`
}

// TransportDecision is the chosen transport plan.
type TransportDecision struct {
	DecisionMeta
	Plan entities.TransportPlan `json:"plan"`
}

// EligibilityDecision is a screening verdict with every evaluated criterion.
type EligibilityDecision struct {
	DecisionMeta
	Eligible bool                       `json:"eligible"`
	Result   entities.EligibilityResult `json:"result"`
}

// Decision bodies accepted from the prediction service, one per task type.
type (
	donorChoice struct {
		DonorID string `json:"donor_id"`
	}
	urgencyChoice struct {
		Urgency       entities.Urgency `json:"urgency"`
		PriorityScore *float64         `json:"priority_score"`
	}
	inventoryChoice struct {
		SourceID string `json:"source_id"`
	}
	transportChoice struct {
		Method     entities.TransportMethod `json:"method"`
		ETAMinutes int                      `json:"eta_minutes"`
	}
	eligibilityChoice struct {
		Eligible *bool `json:"eligible"`
	}
)

// DecisionService answers decision requests, preferring the prediction
// service and falling back to the heuristics, and records every decision.
type DecisionService struct {
	predictor   providers.PredictionProvider
	collector   *TrainingDataCollector
	metrics     *observability.Metrics
	geo         *GeoEstimator
	scorer      *CandidateScorer
	urgency     *UrgencyAssessor
	transport   *TransportPlanner
	eligibility *EligibilityEvaluator
	now         func() time.Time
}

// NewDecisionService creates a decision service. predictor, collector and
// metrics may be nil.
func NewDecisionService(predictor providers.PredictionProvider, collector *TrainingDataCollector, metrics *observability.Metrics) *DecisionService {
	geo := NewGeoEstimator()
	return &DecisionService{
		predictor:   predictor,
		collector:   collector,
		metrics:     metrics,
		geo:         geo,
		scorer:      NewCandidateScorer(geo),
		urgency:     NewUrgencyAssessor(),
		transport:   NewTransportPlanner(geo),
		eligibility: NewEligibilityEvaluator(),
		now:         time.Now,
	}
}

// SelectDonor picks the donor to contact for alert.
func (s *DecisionService) SelectDonor(ctx context.Context, alert *entities.Alert, candidates []entities.Candidate, link Linkage) (*DonorSelectionDecision, error) {
	at := s.now()
	ranked, err := s.scorer.RankDonors(alert, candidates, at)
	if err != nil {
		return nil, err
	}

	features := BuildDonorSelectionFeatures(alert, ranked, at)
	result := s.predict(ctx, entities.TaskDonorSelection, features)

	selected := 0
	meta := s.heuristicMeta(result, fmt.Sprintf("highest match score %.1f of %d candidates", ranked[0].Score, len(ranked)))
	if d, ok := result.(*providers.ModelDecision); ok {
		var choice donorChoice
		idx := -1
		if err := json.Unmarshal(d.Decision, &choice); err == nil {
			for i := range ranked {
				if ranked[i].Candidate.ID == choice.DonorID {
					idx = i
					break
				}
			}
		}
		if idx >= 0 {
			selected = idx
			meta = modelMeta(d)
		} else {
			s.rejectModel(ctx, entities.TaskDonorSelection, "model chose an unknown donor")
		}
	}
	s.metrics.RecordDecision(ctx, string(entities.TaskDonorSelection), string(meta.Source))

	s.collector.Go(ctx, func(ctx context.Context) {
		s.collector.CollectDonorSelectionExample(ctx, alert, ranked, selected, collectOptions(meta, link, at))
	})

	return &DonorSelectionDecision{DecisionMeta: meta, Selected: ranked[selected], Ranked: ranked}, nil
}

// AssessUrgency classifies the stock of one blood type.
func (s *DecisionService) AssessUrgency(ctx context.Context, rawBloodType string, currentUnits int, dailyUsage float64, link Linkage) (*UrgencyDecision, error) {
	bt, err := bloodtype.Normalize(rawBloodType)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	at := s.now()
	assessment, err := s.urgency.Assess(bt, currentUnits, dailyUsage)
	if err != nil {
		return nil, err
	}

	features := BuildUrgencyAssessmentFeatures(bt, currentUnits, dailyUsage, at)
	result := s.predict(ctx, entities.TaskUrgencyAssessment, features)

	meta := s.heuristicMeta(result, fmt.Sprintf("%s with %d units and %.1f days of supply", assessment.Urgency, currentUnits, assessment.DaysRemaining))
	if d, ok := result.(*providers.ModelDecision); ok {
		var choice urgencyChoice
		if err := json.Unmarshal(d.Decision, &choice); err == nil && choice.Urgency.Valid() {
			assessment.Urgency = choice.Urgency
			if choice.PriorityScore != nil && *choice.PriorityScore >= 0 && *choice.PriorityScore <= 1 {
				assessment.PriorityScore = *choice.PriorityScore
			} else {
				assessment.PriorityScore = s.urgency.PriorityScore(choice.Urgency, bt, currentUnits, assessment.DaysRemaining)
			}
			meta = modelMeta(d)
		} else {
			s.rejectModel(ctx, entities.TaskUrgencyAssessment, "model returned an unknown urgency")
		}
	}
	s.metrics.RecordDecision(ctx, string(entities.TaskUrgencyAssessment), string(meta.Source))

	s.collector.Go(ctx, func(ctx context.Context) {
		s.collector.CollectUrgencyAssessmentExample(ctx, currentUnits, dailyUsage, assessment, collectOptions(meta, link, at))
	})

	return &UrgencyDecision{DecisionMeta: meta, Assessment: assessment}, nil
}

// SelectInventory picks the stock source to fulfil req.
func (s *DecisionService) SelectInventory(ctx context.Context, req *entities.InventoryRequest, sources []entities.InventorySource, link Linkage) (*InventorySelectionDecision, error) {
	at := s.now()
	ranked, err := s.scorer.RankInventory(req, sources)
	if err != nil {
		return nil, err
	}

	features := BuildInventorySelectionFeatures(req, ranked, at)
	result := s.predict(ctx, entities.TaskInventorySelection, features)

	selected := 0
	meta := s.heuristicMeta(result, fmt.Sprintf("highest inventory score %.1f of %d sources", ranked[0].Score, len(ranked)))
	if d, ok := result.(*providers.ModelDecision); ok {
		var choice inventoryChoice
		idx := -1
		if err := json.Unmarshal(d.Decision, &choice); err == nil {
			for i := range ranked {
				if ranked[i].Source.ID == choice.SourceID {
					idx = i
					break
				}
			}
		}
		if idx >= 0 {
			selected = idx
			meta = modelMeta(d)
		} else {
			s.rejectModel(ctx, entities.TaskInventorySelection, "model chose an unknown source")
		}
	}
	s.metrics.RecordDecision(ctx, string(entities.TaskInventorySelection), string(meta.Source))

	s.collector.Go(ctx, func(ctx context.Context) {
		s.collector.CollectInventorySelectionExample(ctx, req, ranked, selected, collectOptions(meta, link, at))
	})

	return &InventorySelectionDecision{DecisionMeta: meta, Selected: ranked[selected], Ranked: ranked}, nil
}

// PlanTransport chooses how units travel distanceKm.
func (s *DecisionService) PlanTransport(ctx context.Context, distanceKm float64, urgency entities.Urgency, units int, link Linkage) (*TransportDecision, error) {
	if units < 1 {
		return nil, apperrors.NewValidationErrorf("units must be at least 1, got %d", units)
	}
	at := s.now()
	plan, err := s.transport.Plan(distanceKm, urgency, units, at)
	if err != nil {
		return nil, err
	}
	traffic := s.geo.TrafficMultiplier(at.Hour())

	features := BuildTransportPlanningFeatures(distanceKm, urgency, units, at.Hour(), traffic)
	result := s.predict(ctx, entities.TaskTransportPlanning, features)

	meta := s.heuristicMeta(result, plan.Reason)
	if d, ok := result.(*providers.ModelDecision); ok {
		var choice transportChoice
		if err := json.Unmarshal(d.Decision, &choice); err == nil && choice.Method.Valid() && choice.ETAMinutes > 0 {
			plan.Method = choice.Method
			plan.ETAMinutes = choice.ETAMinutes
			plan.Reason = d.Reasoning
			meta = modelMeta(d)
		} else {
			s.rejectModel(ctx, entities.TaskTransportPlanning, "model returned an unusable transport plan")
		}
	}
	s.metrics.RecordDecision(ctx, string(entities.TaskTransportPlanning), string(meta.Source))

	s.collector.Go(ctx, func(ctx context.Context) {
		s.collector.CollectTransportPlanningExample(ctx, urgency, units, traffic, plan, collectOptions(meta, link, at))
	})

	return &TransportDecision{DecisionMeta: meta, Plan: plan}, nil
}

// AnalyzeEligibility screens a donor. Failing a criterion is a normal result,
// not an error. The model may reject a donor the rules accept, but can never
// accept one the rules reject.
func (s *DecisionService) AnalyzeEligibility(ctx context.Context, profile *entities.DonorProfile, link Linkage) (*EligibilityDecision, error) {
	if profile == nil {
		return nil, apperrors.NewValidationError("donor profile is required")
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	at := s.now()
	evaluation := s.eligibility.Evaluate(profile)
	eligible := evaluation.Passed

	features := BuildEligibilityAnalysisFeatures(profile)
	result := s.predict(ctx, entities.TaskEligibilityAnalysis, features)

	reasoning := "all screening criteria passed"
	if !eligible {
		reasoning = fmt.Sprintf("%d screening criteria failed", len(evaluation.Failed()))
	}
	meta := s.heuristicMeta(result, reasoning)
	if d, ok := result.(*providers.ModelDecision); ok {
		var choice eligibilityChoice
		switch err := json.Unmarshal(d.Decision, &choice); {
		case err != nil || choice.Eligible == nil:
			s.rejectModel(ctx, entities.TaskEligibilityAnalysis, "model returned no verdict")
		case *choice.Eligible && !evaluation.Passed:
			s.rejectModel(ctx, entities.TaskEligibilityAnalysis, "model accepted a donor failing screening criteria")
		default:
			eligible = *choice.Eligible
			meta = modelMeta(d)
		}
	}
	s.metrics.RecordDecision(ctx, string(entities.TaskEligibilityAnalysis), string(meta.Source))

	s.collector.Go(ctx, func(ctx context.Context) {
		s.collector.CollectEligibilityAnalysisExample(ctx, profile, eligible, evaluation, collectOptions(meta, link, at))
	})

	return &EligibilityDecision{DecisionMeta: meta, Eligible: eligible, Result: evaluation}, nil
}

func (s *DecisionService) predict(ctx context.Context, task entities.TaskType, body any) providers.ModelResult {
	if s.predictor == nil {
		return providers.Fallback("prediction disabled")
	}
	if result := s.predictor.Predict(ctx, task, body); result != nil {
		return result
	}
	return providers.Fallback("no prediction result")
}

func (s *DecisionService) heuristicMeta(result providers.ModelResult, reasoning string) DecisionMeta {
	return DecisionMeta{
		Source:        entities.SourceHeuristic,
		Reasoning:     reasoning,
		ModelAttempts: result.AttemptCount(),
	}
}

func (s *DecisionService) rejectModel(ctx context.Context, task entities.TaskType, reason string) {
	observability.LoggerFromContext(ctx).Info().
		Str("task_type", string(task)).
		Str("reason", reason).
		Msg("discarding model decision, using heuristic")
}

func modelMeta(d *providers.ModelDecision) DecisionMeta {
	meta := DecisionMeta{
		Source:        entities.SourceModel,
		Reasoning:     d.Reasoning,
		ModelAttempts: d.Attempts,
	}
	if !math.IsNaN(d.Confidence) {
		c := d.Confidence
		meta.Confidence = &c
	}
	return meta
}

func collectOptions(meta DecisionMeta, link Linkage, at time.Time) CollectOptions {
	return CollectOptions{
		Source:     meta.Source,
		Confidence: meta.Confidence,
		Linkage:    link,
		At:         at,
	}
}
