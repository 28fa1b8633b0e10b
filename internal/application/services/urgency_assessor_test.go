package services_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aftab48/Haemologix-sub000/internal/application/services"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	"github.com/Aftab48/Haemologix-sub000/pkg/bloodtype"
	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

func TestUrgencyAssessor_ZeroUnitsIsAlwaysCritical(t *testing.T) {
	assessor := services.NewUrgencyAssessor()

	for _, bt := range bloodtype.All {
		for _, usage := range []float64{0, 0.1, 1, 50} {
			got, err := assessor.Assess(bt, 0, usage)
			require.NoError(t, err)
			assert.Equal(t, entities.UrgencyCritical, got.Urgency, "%s usage %v", bt, usage)
			assert.Equal(t, 0.0, got.DaysRemaining)
		}
	}
}

func TestUrgencyAssessor_HealthyCommonStockIsNotCritical(t *testing.T) {
	assessor := services.NewUrgencyAssessor()

	got, err := assessor.Assess(bloodtype.OPos, 20, 1)
	require.NoError(t, err)
	assert.Equal(t, entities.UrgencyMedium, got.Urgency)
	assert.Equal(t, 20.0, got.DaysRemaining)
	// 20 medium + 10 common + 5 stock + 2 time
	assert.InDelta(t, 0.37, got.PriorityScore, 1e-9)
}

func TestUrgencyAssessor_Thresholds(t *testing.T) {
	assessor := services.NewUrgencyAssessor()

	tests := []struct {
		name  string
		bt    bloodtype.Type
		units int
		usage float64
		want  entities.Urgency
	}{
		{"rare below critical", bloodtype.ONeg, 2, 0.1, entities.UrgencyCritical},
		{"rare at critical threshold", bloodtype.ONeg, 3, 0.1, entities.UrgencyHigh},
		{"rare at high threshold", bloodtype.ABNeg, 8, 0.1, entities.UrgencyMedium},
		{"common below critical", bloodtype.APos, 4, 0.1, entities.UrgencyCritical},
		{"common below high", bloodtype.APos, 11, 0.1, entities.UrgencyHigh},
		{"common at high threshold", bloodtype.APos, 12, 0.1, entities.UrgencyMedium},
		{"half a day left", bloodtype.BPos, 40, 100, entities.UrgencyCritical},
		{"under a day left", bloodtype.BPos, 40, 50, entities.UrgencyCritical},
		{"under two days left", bloodtype.BPos, 40, 25, entities.UrgencyHigh},
		{"no consumption", bloodtype.BPos, 40, 0, entities.UrgencyMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := assessor.Assess(tt.bt, tt.units, tt.usage)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Urgency)
		})
	}
}

func TestUrgencyAssessor_NoConsumptionDays(t *testing.T) {
	assessor := services.NewUrgencyAssessor()

	got, err := assessor.Assess(bloodtype.APos, 30, 0)
	require.NoError(t, err)
	assert.Equal(t, services.NoConsumptionDays, got.DaysRemaining)
}

func TestUrgencyAssessor_PriorityScoreIsCapped(t *testing.T) {
	assessor := services.NewUrgencyAssessor()

	score := assessor.PriorityScore(entities.UrgencyCritical, bloodtype.ONeg, 0, 0)
	assert.Equal(t, 1.0, score)

	score = assessor.PriorityScore(entities.UrgencyHigh, bloodtype.ANeg, 7, 1.5)
	assert.InDelta(t, 0.67, score, 1e-9)
}

func TestUrgencyAssessor_RejectsBadInput(t *testing.T) {
	assessor := services.NewUrgencyAssessor()

	_, err := assessor.Assess(bloodtype.OPos, -1, 1)
	assert.Error(t, err)

	_, err = assessor.Assess(bloodtype.OPos, 5, math.NaN())
	assert.Error(t, err)

	_, err = assessor.Assess("C+", 5, 1)
	assert.Error(t, err)

	_, err = assessor.Assess(bloodtype.OPos, 30, -0.5)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
