package entities

import (
	"github.com/Aftab48/Haemologix-sub000/pkg/bloodtype"
	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

// Candidate is a donor being considered for an alert. It is supplied by the
// caller per request and never persisted by the decision core.
type Candidate struct {
	ID           string   `json:"id" validate:"required"`
	Location     Location `json:"location"`
	Reliability  float64  `json:"reliability" validate:"gte=0,lte=1"`
	HealthScore  float64  `json:"health_score" validate:"gte=0,lte=100"`
	BloodType    string   `json:"blood_type,omitempty"`
	QualityScore *float64 `json:"quality_score,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// Validate checks numeric fields and, when present, the blood type label
func (c *Candidate) Validate() error {
	if err := validateStruct("candidate", c); err != nil {
		return err
	}
	if c.BloodType != "" {
		if _, err := bloodtype.Normalize(c.BloodType); err != nil {
			return apperrors.NewValidationErrorf("invalid candidate %s: %v", c.ID, err)
		}
	}
	return nil
}

// Alert is an emergency request for blood units near a location.
type Alert struct {
	ID             string   `json:"id" validate:"required"`
	BloodType      string   `json:"blood_type" validate:"required"`
	Urgency        Urgency  `json:"urgency" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	UnitsNeeded    int      `json:"units_needed" validate:"gte=1"`
	Location       Location `json:"location"`
	SearchRadiusKm float64  `json:"search_radius_km,omitempty" validate:"gte=0"`
}

// Validate checks the alert fields and its blood type label
func (a *Alert) Validate() error {
	if err := validateStruct("alert", a); err != nil {
		return err
	}
	if _, err := bloodtype.Normalize(a.BloodType); err != nil {
		return apperrors.NewValidationErrorf("invalid alert %s: %v", a.ID, err)
	}
	return nil
}

// RecipientType returns the canonical blood type requested by the alert.
// Call Validate first.
func (a *Alert) RecipientType() bloodtype.Type {
	t, _ := bloodtype.Normalize(a.BloodType)
	return t
}

// ValidateCandidates validates each candidate in order and returns the first failure
func ValidateCandidates(candidates []Candidate) error {
	if len(candidates) == 0 {
		return apperrors.NewValidationError("at least one candidate is required")
	}
	for i := range candidates {
		if err := candidates[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
