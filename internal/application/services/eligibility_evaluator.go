package services

import (
	"fmt"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
)

// Screening thresholds
const (
	MinDonorAge               = 18
	MaxDonorAge               = 65
	MinDonorWeightKg          = 50.0
	MinDonorBMI               = 18.5
	MinHemoglobinMale         = 13.0
	MinHemoglobinFemale       = 12.5
	MinDonationIntervalMale   = 90
	MinDonationIntervalFemale = 120
)

// Criterion names
const (
	CriterionAge              = "age"
	CriterionWeight           = "weight"
	CriterionBMI              = "bmi"
	CriterionHemoglobin       = "hemoglobin"
	CriterionDiseaseTests     = "disease_tests"
	CriterionDonationInterval = "donation_interval"
)

// EligibilityEvaluator screens a donor profile against the fixed rule set.
// Criteria that depend on an unknown attribute are not evaluated. When gender
// is unknown the stricter male hemoglobin and female interval limits apply.
type EligibilityEvaluator struct{}

// NewEligibilityEvaluator creates a new eligibility evaluator
func NewEligibilityEvaluator() *EligibilityEvaluator {
	return &EligibilityEvaluator{}
}

// Evaluate returns every evaluated criterion in order and the overall verdict.
func (e *EligibilityEvaluator) Evaluate(p *entities.DonorProfile) entities.EligibilityResult {
	criteria := []entities.EligibilityCriterion{
		check(CriterionAge,
			fmt.Sprintf("%d", p.Age),
			fmt.Sprintf("%d-%d years", MinDonorAge, MaxDonorAge),
			p.Age >= MinDonorAge && p.Age <= MaxDonorAge,
			fmt.Sprintf("Age must be between %d and %d years", MinDonorAge, MaxDonorAge)),
		check(CriterionWeight,
			fmt.Sprintf("%.1f kg", p.WeightKg),
			fmt.Sprintf(">= %.0f kg", MinDonorWeightKg),
			p.WeightKg >= MinDonorWeightKg,
			fmt.Sprintf("Weight must be at least %.0f kg", MinDonorWeightKg)),
	}

	if bmi, ok := p.BMI(); ok {
		criteria = append(criteria, check(CriterionBMI,
			fmt.Sprintf("%.1f", bmi),
			fmt.Sprintf(">= %.1f", MinDonorBMI),
			bmi >= MinDonorBMI,
			fmt.Sprintf("BMI must be at least %.1f", MinDonorBMI)))
	}

	if p.HemoglobinGdL != nil {
		minHb, who := MinHemoglobinMale, "male"
		if p.Gender == entities.GenderFemale {
			minHb, who = MinHemoglobinFemale, "female"
		}
		criteria = append(criteria, check(CriterionHemoglobin,
			fmt.Sprintf("%.1f g/dL", *p.HemoglobinGdL),
			fmt.Sprintf(">= %.1f g/dL", minHb),
			*p.HemoglobinGdL >= minHb,
			fmt.Sprintf("Hemoglobin must be at least %.1f g/dL for %s donors", minHb, who)))
	}

	if p.DiseaseTestsNegative != nil {
		observed := "positive"
		if *p.DiseaseTestsNegative {
			observed = "negative"
		}
		criteria = append(criteria, check(CriterionDiseaseTests,
			observed,
			"negative",
			*p.DiseaseTestsNegative,
			"All infectious disease tests must be negative"))
	}

	if p.DaysSinceLastDonation != nil {
		minDays, who := MinDonationIntervalFemale, "female"
		if p.Gender == entities.GenderMale {
			minDays, who = MinDonationIntervalMale, "male"
		}
		criteria = append(criteria, check(CriterionDonationInterval,
			fmt.Sprintf("%d days", *p.DaysSinceLastDonation),
			fmt.Sprintf(">= %d days", minDays),
			*p.DaysSinceLastDonation >= minDays,
			fmt.Sprintf("At least %d days must pass between donations for %s donors", minDays, who)))
	}

	result := entities.EligibilityResult{Criteria: criteria}
	result.Passed = len(result.Failed()) == 0
	return result
}

func check(name, observed, required string, passed bool, reason string) entities.EligibilityCriterion {
	c := entities.EligibilityCriterion{
		Name:     name,
		Observed: observed,
		Required: required,
		Passed:   passed,
	}
	if !passed {
		c.Reason = reason
	}
	return c
}
