package services

import (
	"math"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	"github.com/Aftab48/Haemologix-sub000/pkg/bloodtype"
	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

// Stock thresholds in units; rare types escalate earlier.
const (
	criticalUnitsRare   = 3
	criticalUnitsCommon = 5
	highUnitsRare       = 8
	highUnitsCommon     = 12

	// NoConsumptionDays stands in for days remaining when nothing is being used.
	NoConsumptionDays = 365.0
)

var urgencyWeights = map[entities.Urgency]int{
	entities.UrgencyCritical: 40,
	entities.UrgencyHigh:     30,
	entities.UrgencyMedium:   20,
	entities.UrgencyLow:      10,
}

var rarityWeights = map[bloodtype.Rarity]int{
	bloodtype.Rare:     30,
	bloodtype.SemiRare: 20,
	bloodtype.Common:   10,
}

// UrgencyAssessor turns stock and demand into an urgency class.
type UrgencyAssessor struct{}

// NewUrgencyAssessor creates a new urgency assessor
func NewUrgencyAssessor() *UrgencyAssessor {
	return &UrgencyAssessor{}
}

// DaysRemaining is how long currentUnits last at dailyUsage.
func (a *UrgencyAssessor) DaysRemaining(currentUnits int, dailyUsage float64) float64 {
	if currentUnits <= 0 {
		return 0
	}
	if dailyUsage <= 0 {
		return NoConsumptionDays
	}
	return float64(currentUnits) / dailyUsage
}

// Assess classifies the stock level of one blood type.
func (a *UrgencyAssessor) Assess(bt bloodtype.Type, currentUnits int, dailyUsage float64) (entities.UrgencyAssessment, error) {
	if currentUnits < 0 {
		return entities.UrgencyAssessment{}, apperrors.NewValidationErrorf("current units must not be negative, got %d", currentUnits)
	}
	if math.IsNaN(dailyUsage) || math.IsInf(dailyUsage, 0) {
		return entities.UrgencyAssessment{}, apperrors.NewValidationError("daily usage must be a finite number")
	}
	if dailyUsage < 0 {
		return entities.UrgencyAssessment{}, apperrors.NewValidationErrorf("daily usage must not be negative, got %v", dailyUsage)
	}
	if !bt.Valid() {
		return entities.UrgencyAssessment{}, apperrors.NewValidationErrorf("unknown blood type %q", bt)
	}

	days := a.DaysRemaining(currentUnits, dailyUsage)
	critical, high := criticalUnitsCommon, highUnitsCommon
	if bloodtype.IsRare(bt) {
		critical, high = criticalUnitsRare, highUnitsRare
	}

	var urgency entities.Urgency
	switch {
	case currentUnits == 0 || days < 0.5:
		urgency = entities.UrgencyCritical
	case currentUnits < critical || days < 1:
		urgency = entities.UrgencyCritical
	case currentUnits < high || days < 2:
		urgency = entities.UrgencyHigh
	default:
		urgency = entities.UrgencyMedium
	}

	return entities.UrgencyAssessment{
		BloodType:     bt,
		Urgency:       urgency,
		DaysRemaining: days,
		PriorityScore: a.PriorityScore(urgency, bt, currentUnits, days),
		Rarity:        bloodtype.RarityOf(bt),
	}, nil
}

// PriorityScore folds urgency, rarity, stock and time pressure into [0,1].
func (a *UrgencyAssessor) PriorityScore(urgency entities.Urgency, bt bloodtype.Type, currentUnits int, daysRemaining float64) float64 {
	total := urgencyWeights[urgency] + rarityWeights[bloodtype.RarityOf(bt)]

	switch {
	case currentUnits == 0:
		total += 20
	case currentUnits < 5:
		total += 15
	case currentUnits < 10:
		total += 10
	default:
		total += 5
	}

	switch {
	case daysRemaining < 1:
		total += 10
	case daysRemaining < 2:
		total += 7
	case daysRemaining < 3:
		total += 5
	default:
		total += 2
	}

	return math.Min(float64(total)/100, 1.0)
}
