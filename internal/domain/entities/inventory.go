package entities

import (
	"github.com/Aftab48/Haemologix-sub000/pkg/bloodtype"
	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

// InventorySource is a blood bank or hospital store holding units of the
// requested type.
type InventorySource struct {
	ID             string   `json:"id" validate:"required"`
	Name           string   `json:"name,omitempty"`
	Location       Location `json:"location"`
	UnitsAvailable int      `json:"units_available" validate:"gte=0"`
	DaysToExpiry   float64  `json:"days_to_expiry" validate:"gte=0"`
}

// Validate checks the inventory source
func (s *InventorySource) Validate() error {
	return validateStruct("inventory source", s)
}

// InventoryRequest asks for units to be pulled from existing stock.
type InventoryRequest struct {
	ID          string   `json:"id" validate:"required"`
	BloodType   string   `json:"blood_type" validate:"required"`
	Urgency     Urgency  `json:"urgency" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	UnitsNeeded int      `json:"units_needed" validate:"gte=1"`
	Location    Location `json:"location"`
}

// Validate checks the request
func (r *InventoryRequest) Validate() error {
	if err := validateStruct("inventory request", r); err != nil {
		return err
	}
	if _, err := bloodtype.Normalize(r.BloodType); err != nil {
		return apperrors.NewValidationErrorf("invalid inventory request %s: %v", r.ID, err)
	}
	return nil
}

// ValidateSources validates each source in order and returns the first failure
func ValidateSources(sources []InventorySource) error {
	if len(sources) == 0 {
		return apperrors.NewValidationError("at least one inventory source is required")
	}
	for i := range sources {
		if err := sources[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
