package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Aftab48/Haemologix-sub000/internal/adapters/database"
	"github.com/Aftab48/Haemologix-sub000/internal/application/services"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/providers"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/repositories"
	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

type MockPredictionProvider struct {
	mock.Mock
}

func (m *MockPredictionProvider) Predict(ctx context.Context, task entities.TaskType, body any) providers.ModelResult {
	args := m.Called(ctx, task, body)
	return args.Get(0).(providers.ModelResult)
}

func modelSays(decision string, confidence float64) *providers.ModelDecision {
	return &providers.ModelDecision{
		Decision:   json.RawMessage(decision),
		Reasoning:  "learned preference",
		Confidence: confidence,
		Attempts:   1,
	}
}

func newDecisionService(t *testing.T, predictor providers.PredictionProvider) (*services.DecisionService, *services.TrainingDataCollector, *database.MemoryTrainingExampleStore) {
	t.Helper()
	store := database.NewMemoryTrainingExampleStore()
	collector := services.NewTrainingDataCollector(store, collectorConfig(), nil)
	svc := services.NewDecisionService(predictor, collector, nil)
	services.SetDecisionClock(svc, func() time.Time { return noon })
	return svc, collector, store
}

func donorCandidates() []entities.Candidate {
	return []entities.Candidate{
		{ID: "near", Location: entities.Location{Latitude: 6.53, Longitude: 3.38}, Reliability: 0.9, HealthScore: 80},
		{ID: "far", Location: entities.Location{Latitude: 6.65, Longitude: 3.40}, Reliability: 0.6, HealthScore: 70},
	}
}

func TestDecisionService_SelectDonor_FallsBackToHeuristic(t *testing.T) {
	predictor := new(MockPredictionProvider)
	predictor.On("Predict", mock.Anything, entities.TaskDonorSelection, mock.AnythingOfType("entities.DonorSelectionFeatures")).
		Return(&providers.HeuristicFallback{Reason: "unreachable", Attempts: 3})
	svc, collector, store := newDecisionService(t, predictor)

	decision, err := svc.SelectDonor(context.Background(), testAlert(), donorCandidates(), services.Linkage{RequestID: "req-1"})
	require.NoError(t, err)
	collector.Wait()

	assert.Equal(t, entities.SourceHeuristic, decision.Source)
	assert.Equal(t, 3, decision.ModelAttempts)
	assert.Equal(t, "near", decision.Selected.Candidate.ID)
	assert.Nil(t, decision.Confidence)
	predictor.AssertExpectations(t)

	examples, err := store.List(context.Background(), repositories.TrainingExampleFilter{TaskType: entities.TaskDonorSelection})
	require.NoError(t, err)
	require.Len(t, examples, 1)
	payload := examples[0].Payload.(*entities.DonorSelectionPayload)
	assert.Equal(t, entities.SourceHeuristic, payload.Label.DecisionSource)
	assert.Equal(t, "near", payload.Label.SelectedDonorID)
	assert.Equal(t, "req-1", *examples[0].RequestID)
}

func TestDecisionService_SelectDonor_UsesModelChoice(t *testing.T) {
	predictor := new(MockPredictionProvider)
	predictor.On("Predict", mock.Anything, entities.TaskDonorSelection, mock.Anything).
		Return(modelSays(`{"donor_id":"far"}`, 0.77))
	svc, collector, store := newDecisionService(t, predictor)

	decision, err := svc.SelectDonor(context.Background(), testAlert(), donorCandidates(), services.Linkage{})
	require.NoError(t, err)
	collector.Wait()

	assert.Equal(t, entities.SourceModel, decision.Source)
	assert.Equal(t, "far", decision.Selected.Candidate.ID)
	require.NotNil(t, decision.Confidence)
	assert.Equal(t, 0.77, *decision.Confidence)
	assert.Equal(t, "learned preference", decision.Reasoning)

	examples, _ := store.List(context.Background(), repositories.TrainingExampleFilter{})
	require.Len(t, examples, 1)
	label := examples[0].Payload.(*entities.DonorSelectionPayload).Label
	assert.Equal(t, 1, label.SelectedIndex)
	assert.Equal(t, entities.SourceModel, label.DecisionSource)
}

func TestDecisionService_SelectDonor_IgnoresUnknownModelDonor(t *testing.T) {
	predictor := new(MockPredictionProvider)
	predictor.On("Predict", mock.Anything, entities.TaskDonorSelection, mock.Anything).
		Return(modelSays(`{"donor_id":"someone-else"}`, 0.9))
	svc, collector, _ := newDecisionService(t, predictor)

	decision, err := svc.SelectDonor(context.Background(), testAlert(), donorCandidates(), services.Linkage{})
	require.NoError(t, err)
	collector.Wait()

	assert.Equal(t, entities.SourceHeuristic, decision.Source)
	assert.Equal(t, "near", decision.Selected.Candidate.ID)
}

func TestDecisionService_SelectDonor_ValidationSkipsModel(t *testing.T) {
	predictor := new(MockPredictionProvider)
	svc, _, _ := newDecisionService(t, predictor)

	alert := testAlert()
	alert.Location.Latitude = 123
	_, err := svc.SelectDonor(context.Background(), alert, donorCandidates(), services.Linkage{})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	predictor.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything, mock.Anything)
}

func TestDecisionService_AssessUrgency(t *testing.T) {
	predictor := new(MockPredictionProvider)
	predictor.On("Predict", mock.Anything, entities.TaskUrgencyAssessment, mock.Anything).
		Return(modelSays(`{"urgency":"HIGH","priority_score":0.66}`, 0.8)).Once()
	predictor.On("Predict", mock.Anything, entities.TaskUrgencyAssessment, mock.Anything).
		Return(modelSays(`{"urgency":"EXTREME"}`, 0.8)).Once()
	svc, collector, _ := newDecisionService(t, predictor)
	ctx := context.Background()

	decision, err := svc.AssessUrgency(ctx, "o pos", 20, 1, services.Linkage{})
	require.NoError(t, err)
	assert.Equal(t, entities.SourceModel, decision.Source)
	assert.Equal(t, entities.UrgencyHigh, decision.Assessment.Urgency)
	assert.Equal(t, 0.66, decision.Assessment.PriorityScore)

	decision, err = svc.AssessUrgency(ctx, "O+", 20, 1, services.Linkage{})
	require.NoError(t, err)
	assert.Equal(t, entities.SourceHeuristic, decision.Source)
	assert.Equal(t, entities.UrgencyMedium, decision.Assessment.Urgency)

	_, err = svc.AssessUrgency(ctx, "Z+", 20, 1, services.Linkage{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	collector.Wait()
}

func TestDecisionService_SelectInventory(t *testing.T) {
	predictor := new(MockPredictionProvider)
	predictor.On("Predict", mock.Anything, entities.TaskInventorySelection, mock.Anything).
		Return(modelSays(`{"source_id":"bank-2"}`, 0.6))
	svc, collector, _ := newDecisionService(t, predictor)

	req := &entities.InventoryRequest{ID: "req-1", BloodType: "AB-", Urgency: entities.UrgencyHigh, UnitsNeeded: 2, Location: entities.Location{Latitude: 6.5, Longitude: 3.4}}
	sources := []entities.InventorySource{
		{ID: "bank-1", Location: entities.Location{Latitude: 6.5, Longitude: 3.4}, UnitsAvailable: 5, DaysToExpiry: 20},
		{ID: "bank-2", Location: entities.Location{Latitude: 6.9, Longitude: 3.4}, UnitsAvailable: 5, DaysToExpiry: 20},
	}

	decision, err := svc.SelectInventory(context.Background(), req, sources, services.Linkage{})
	require.NoError(t, err)
	collector.Wait()

	assert.Equal(t, entities.SourceModel, decision.Source)
	assert.Equal(t, "bank-2", decision.Selected.Source.ID)
	assert.Len(t, decision.Ranked, 2)
	assert.Equal(t, "bank-1", decision.Ranked[0].Source.ID)
}

func TestDecisionService_PlanTransport(t *testing.T) {
	predictor := new(MockPredictionProvider)
	predictor.On("Predict", mock.Anything, entities.TaskTransportPlanning, mock.Anything).
		Return(&providers.HeuristicFallback{Reason: "model not loaded", Attempts: 3}).Once()
	predictor.On("Predict", mock.Anything, entities.TaskTransportPlanning, mock.Anything).
		Return(modelSays(`{"method":"courier","eta_minutes":0}`, 0.5)).Once()
	svc, collector, _ := newDecisionService(t, predictor)
	ctx := context.Background()

	decision, err := svc.PlanTransport(ctx, 10, entities.UrgencyCritical, 2, services.Linkage{})
	require.NoError(t, err)
	assert.Equal(t, entities.TransportAmbulance, decision.Plan.Method)
	assert.Equal(t, 27, decision.Plan.ETAMinutes)

	// a zero ETA is not a usable plan
	decision, err = svc.PlanTransport(ctx, 10, entities.UrgencyCritical, 2, services.Linkage{})
	require.NoError(t, err)
	assert.Equal(t, entities.SourceHeuristic, decision.Source)
	assert.Equal(t, entities.TransportAmbulance, decision.Plan.Method)

	_, err = svc.PlanTransport(ctx, -1, entities.UrgencyCritical, 2, services.Linkage{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	collector.Wait()
}

func TestDecisionService_AnalyzeEligibility(t *testing.T) {
	ctx := context.Background()

	t.Run("model cannot accept a donor failing the rules", func(t *testing.T) {
		predictor := new(MockPredictionProvider)
		predictor.On("Predict", mock.Anything, entities.TaskEligibilityAnalysis, mock.Anything).
			Return(modelSays(`{"eligible":true}`, 0.99))
		svc, collector, _ := newDecisionService(t, predictor)

		profile := healthyDonor()
		profile.WeightKg = 45
		decision, err := svc.AnalyzeEligibility(ctx, profile, services.Linkage{})
		require.NoError(t, err)
		collector.Wait()

		assert.False(t, decision.Eligible)
		assert.Equal(t, entities.SourceHeuristic, decision.Source)
		require.NotEmpty(t, decision.Result.Failed())
		assert.Equal(t, "weight", decision.Result.Failed()[0].Name)
	})

	t.Run("model may reject a donor passing the rules", func(t *testing.T) {
		predictor := new(MockPredictionProvider)
		predictor.On("Predict", mock.Anything, entities.TaskEligibilityAnalysis, mock.Anything).
			Return(modelSays(`{"eligible":false}`, 0.7))
		svc, collector, store := newDecisionService(t, predictor)

		decision, err := svc.AnalyzeEligibility(ctx, healthyDonor(), services.Linkage{})
		require.NoError(t, err)
		collector.Wait()

		assert.False(t, decision.Eligible)
		assert.True(t, decision.Result.Passed)
		assert.Equal(t, entities.SourceModel, decision.Source)

		examples, _ := store.List(ctx, repositories.TrainingExampleFilter{})
		require.Len(t, examples, 1)
		assert.False(t, examples[0].Payload.(*entities.EligibilityAnalysisPayload).Label.Eligible)
	})

	t.Run("no predictor uses the rules", func(t *testing.T) {
		svc, collector, _ := newDecisionService(t, nil)

		decision, err := svc.AnalyzeEligibility(ctx, healthyDonor(), services.Linkage{})
		require.NoError(t, err)
		collector.Wait()

		assert.True(t, decision.Eligible)
		assert.Equal(t, entities.SourceHeuristic, decision.Source)
		assert.Zero(t, decision.ModelAttempts)
	})
}
