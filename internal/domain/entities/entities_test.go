package entities_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

func TestLocation_Validate(t *testing.T) {
	tests := []struct {
		name    string
		loc     entities.Location
		wantErr bool
	}{
		{"valid", entities.Location{Latitude: 6.52, Longitude: 3.37}, false},
		{"poles and antimeridian", entities.Location{Latitude: -90, Longitude: 180}, false},
		{"NaN latitude", entities.Location{Latitude: math.NaN(), Longitude: 3.37}, true},
		{"infinite longitude", entities.Location{Latitude: 6.52, Longitude: math.Inf(1)}, true},
		{"latitude out of range", entities.Location{Latitude: 91, Longitude: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.loc.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCandidate_Validate(t *testing.T) {
	c := entities.Candidate{ID: "d1", Location: entities.Location{Latitude: 1, Longitude: 1}, Reliability: 0.9, HealthScore: 80, BloodType: "o pos"}
	assert.NoError(t, c.Validate())

	c.Reliability = math.NaN()
	assert.Error(t, c.Validate())

	c.Reliability = 0.9
	c.BloodType = "Z+"
	assert.Error(t, c.Validate())
}

func TestAlert_Validate(t *testing.T) {
	a := entities.Alert{ID: "a1", BloodType: "AB-", Urgency: entities.UrgencyHigh, UnitsNeeded: 2}
	require.NoError(t, a.Validate())

	a.Urgency = "URGENT"
	assert.Error(t, a.Validate())

	a.Urgency = entities.UrgencyHigh
	a.UnitsNeeded = 0
	assert.Error(t, a.Validate())
}

func TestParseTaskType(t *testing.T) {
	task, err := entities.ParseTaskType("donor-selection")
	require.NoError(t, err)
	assert.Equal(t, entities.TaskDonorSelection, task)

	task, err = entities.ParseTaskType("eligibility_analysis")
	require.NoError(t, err)
	assert.Equal(t, entities.TaskEligibilityAnalysis, task)

	_, err = entities.ParseTaskType("blood_matching")
	assert.Error(t, err)
}

func TestPayload_EncodeDecodeKeepsVariant(t *testing.T) {
	original := &entities.TransportPlanningPayload{
		Features: entities.TransportPlanningFeatures{DistanceKm: 12.5, Urgency: entities.UrgencyCritical, Units: 2, HourOfDay: 8, TrafficLevel: "heavy", TrafficMultiplier: 1.5},
		Label:    entities.TransportPlanningLabel{Method: entities.TransportAmbulance, ETAMinutes: 30, DecisionSource: entities.SourceHeuristic},
	}

	task, features, label, err := entities.EncodePayload(original)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskTransportPlanning, task)
	assert.JSONEq(t, `{"distance_km":12.5,"urgency":"CRITICAL","units":2,"hour_of_day":8,"traffic_level":"heavy","traffic_multiplier":1.5}`, string(features))

	decoded, err := entities.DecodePayload(task, features, label)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodePayload_RejectsUnknownTask(t *testing.T) {
	_, err := entities.DecodePayload("routing", []byte(`{}`), []byte(`{}`))
	assert.Error(t, err)
}

func TestEncodePayload_RejectsNil(t *testing.T) {
	_, _, _, err := entities.EncodePayload(nil)
	assert.Error(t, err)

	typedNils := []entities.Payload{
		(*entities.DonorSelectionPayload)(nil),
		(*entities.UrgencyAssessmentPayload)(nil),
		(*entities.InventorySelectionPayload)(nil),
		(*entities.TransportPlanningPayload)(nil),
		(*entities.EligibilityAnalysisPayload)(nil),
	}
	for _, p := range typedNils {
		assert.NotPanics(t, func() {
			_, _, _, err := entities.EncodePayload(p)
			assert.Error(t, err, "%T", p)
		})
	}
}

func TestNewExportRecord(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	req := "req-9"
	ex := &entities.TrainingExample{
		ID: "ex-1",
		Payload: &entities.EligibilityAnalysisPayload{
			Features: entities.EligibilityAnalysisFeatures{Age: 30, WeightKg: 70},
			Label:    entities.EligibilityAnalysisLabel{Eligible: true, FailedCriteria: []string{}, Reasons: []string{}},
		},
		RequestID: &req,
		CreatedAt: created,
	}

	rec, err := entities.NewExportRecord(ex)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskEligibilityAnalysis, rec.TaskType)
	assert.Equal(t, "ex-1", rec.ID)
	assert.Equal(t, &req, rec.RequestID)
	assert.Nil(t, rec.Outcome)
	assert.Equal(t, created, rec.CreatedAt)
}

func TestEligibilityResult_Failed(t *testing.T) {
	r := entities.EligibilityResult{Criteria: []entities.EligibilityCriterion{
		{Name: "age", Passed: true},
		{Name: "weight", Passed: false, Reason: "Weight must be at least 50 kg"},
	}}
	require.Len(t, r.Failed(), 1)
	assert.Equal(t, "weight", r.Failed()[0].Name)
	assert.Equal(t, []string{"Weight must be at least 50 kg"}, r.Reasons())
}
