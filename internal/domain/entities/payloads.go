package entities

import (
	"encoding/json"
	"fmt"
)

// Payload is the typed (features, label) pair of a training example. Each
// task type has exactly one variant; the set is closed.
type Payload interface {
	TaskType() TaskType
	isPayload()
}

// DonorCandidateFeatures is one candidate as seen by the donor model.
type DonorCandidateFeatures struct {
	DonorID     string  `json:"donor_id"`
	DistanceKm  float64 `json:"distance_km"`
	ETAMinutes  int     `json:"eta_minutes"`
	Reliability float64 `json:"reliability"`
	HealthScore float64 `json:"health_score"`
	BloodType   string  `json:"blood_type,omitempty"`
	Score       float64 `json:"score"`
}

// DonorSelectionFeatures is the input of a donor selection decision.
type DonorSelectionFeatures struct {
	AlertID        string                   `json:"alert_id"`
	BloodType      string                   `json:"blood_type"`
	Urgency        Urgency                  `json:"urgency"`
	UnitsNeeded    int                      `json:"units_needed"`
	SearchRadiusKm float64                  `json:"search_radius_km"`
	HourOfDay      int                      `json:"hour_of_day"`
	Candidates     []DonorCandidateFeatures `json:"candidates"`
}

// DonorSelectionLabel is the chosen donor, by position and by value.
type DonorSelectionLabel struct {
	SelectedIndex   int                    `json:"selected_index"`
	SelectedDonorID string                 `json:"selected_donor_id"`
	Selected        DonorCandidateFeatures `json:"selected"`
	DecisionSource  DecisionSource         `json:"decision_source"`
	Confidence      *float64               `json:"confidence,omitempty"`
}

// DonorSelectionPayload pairs donor selection features and label.
type DonorSelectionPayload struct {
	Features DonorSelectionFeatures
	Label    DonorSelectionLabel
}

// UrgencyAssessmentFeatures is the stock picture behind an urgency decision.
type UrgencyAssessmentFeatures struct {
	BloodType     string  `json:"blood_type"`
	Rarity        string  `json:"rarity"`
	CurrentUnits  int     `json:"current_units"`
	DailyUsage    float64 `json:"daily_usage"`
	DaysRemaining float64 `json:"days_remaining"`
	HourOfDay     int     `json:"hour_of_day"`
	DayOfWeek     int     `json:"day_of_week"`
}

// UrgencyAssessmentLabel is the assigned urgency class and priority.
type UrgencyAssessmentLabel struct {
	Urgency        Urgency        `json:"urgency"`
	PriorityScore  float64        `json:"priority_score"`
	DecisionSource DecisionSource `json:"decision_source"`
	Confidence     *float64       `json:"confidence,omitempty"`
}

// UrgencyAssessmentPayload pairs urgency features and label.
type UrgencyAssessmentPayload struct {
	Features UrgencyAssessmentFeatures
	Label    UrgencyAssessmentLabel
}

// InventorySourceFeatures is one stock source as seen by the inventory model.
type InventorySourceFeatures struct {
	SourceID       string  `json:"source_id"`
	DistanceKm     float64 `json:"distance_km"`
	UnitsAvailable int     `json:"units_available"`
	DaysToExpiry   float64 `json:"days_to_expiry"`
	Score          float64 `json:"score"`
}

// InventorySelectionFeatures is the input of an inventory selection decision.
type InventorySelectionFeatures struct {
	RequestID   string                    `json:"request_id"`
	BloodType   string                    `json:"blood_type"`
	Urgency     Urgency                   `json:"urgency"`
	UnitsNeeded int                       `json:"units_needed"`
	HourOfDay   int                       `json:"hour_of_day"`
	Sources     []InventorySourceFeatures `json:"sources"`
}

// InventorySelectionLabel is the chosen source, by position and by value.
type InventorySelectionLabel struct {
	SelectedIndex    int                     `json:"selected_index"`
	SelectedSourceID string                  `json:"selected_source_id"`
	Selected         InventorySourceFeatures `json:"selected"`
	DecisionSource   DecisionSource          `json:"decision_source"`
	Confidence       *float64                `json:"confidence,omitempty"`
}

// InventorySelectionPayload pairs inventory features and label.
type InventorySelectionPayload struct {
	Features InventorySelectionFeatures
	Label    InventorySelectionLabel
}

// TransportPlanningFeatures is the context of a transport decision.
type TransportPlanningFeatures struct {
	DistanceKm        float64 `json:"distance_km"`
	Urgency           Urgency `json:"urgency"`
	Units             int     `json:"units"`
	HourOfDay         int     `json:"hour_of_day"`
	TrafficLevel      string  `json:"traffic_level"`
	TrafficMultiplier float64 `json:"traffic_multiplier"`
}

// TransportPlanningLabel is the chosen method and its ETA.
type TransportPlanningLabel struct {
	Method         TransportMethod `json:"method"`
	ETAMinutes     int             `json:"eta_minutes"`
	DecisionSource DecisionSource  `json:"decision_source"`
	Confidence     *float64        `json:"confidence,omitempty"`
}

// TransportPlanningPayload pairs transport features and label.
type TransportPlanningPayload struct {
	Features TransportPlanningFeatures
	Label    TransportPlanningLabel
}

// EligibilityAnalysisFeatures is the screened donor profile.
type EligibilityAnalysisFeatures struct {
	Age                   int      `json:"age"`
	WeightKg              float64  `json:"weight_kg"`
	HeightCm              *float64 `json:"height_cm,omitempty"`
	BMI                   *float64 `json:"bmi,omitempty"`
	Gender                Gender   `json:"gender,omitempty"`
	HemoglobinGdL         *float64 `json:"hemoglobin_g_dl,omitempty"`
	DiseaseTestsNegative  *bool    `json:"disease_tests_negative,omitempty"`
	DaysSinceLastDonation *int     `json:"days_since_last_donation,omitempty"`
}

// EligibilityAnalysisLabel is the screening verdict.
type EligibilityAnalysisLabel struct {
	Eligible       bool           `json:"eligible"`
	FailedCriteria []string       `json:"failed_criteria"`
	Reasons        []string       `json:"reasons"`
	DecisionSource DecisionSource `json:"decision_source"`
	Confidence     *float64       `json:"confidence,omitempty"`
}

// EligibilityAnalysisPayload pairs eligibility features and label.
type EligibilityAnalysisPayload struct {
	Features EligibilityAnalysisFeatures
	Label    EligibilityAnalysisLabel
}

func (*DonorSelectionPayload) TaskType() TaskType { return TaskDonorSelection }
func (*UrgencyAssessmentPayload) TaskType() TaskType { return TaskUrgencyAssessment }
func (*InventorySelectionPayload) TaskType() TaskType { return TaskInventorySelection }
func (*TransportPlanningPayload) TaskType() TaskType { return TaskTransportPlanning }
func (*EligibilityAnalysisPayload) TaskType() TaskType { return TaskEligibilityAnalysis }

func (*DonorSelectionPayload) isPayload() {}
func (*UrgencyAssessmentPayload) isPayload() {}
func (*InventorySelectionPayload) isPayload() {}
func (*TransportPlanningPayload) isPayload() {}
func (*EligibilityAnalysisPayload) isPayload() {}

// EncodePayload serializes the features and label of p for storage.
func EncodePayload(p Payload) (task TaskType, features, label json.RawMessage, err error) {
	var f, l any
	switch v := p.(type) {
	case *DonorSelectionPayload:
		if v != nil {
			f, l = v.Features, v.Label
		}
	case *UrgencyAssessmentPayload:
		if v != nil {
			f, l = v.Features, v.Label
		}
	case *InventorySelectionPayload:
		if v != nil {
			f, l = v.Features, v.Label
		}
	case *TransportPlanningPayload:
		if v != nil {
			f, l = v.Features, v.Label
		}
	case *EligibilityAnalysisPayload:
		if v != nil {
			f, l = v.Features, v.Label
		}
	case nil:
	default:
		return "", nil, nil, fmt.Errorf("unsupported payload %T", p)
	}
	// f stays nil for a nil interface and for a typed nil pointer
	if f == nil {
		return "", nil, nil, fmt.Errorf("nil payload")
	}

	if features, err = json.Marshal(f); err != nil {
		return "", nil, nil, fmt.Errorf("encode %s features: %w", p.TaskType(), err)
	}
	if label, err = json.Marshal(l); err != nil {
		return "", nil, nil, fmt.Errorf("encode %s label: %w", p.TaskType(), err)
	}
	return p.TaskType(), features, label, nil
}

// DecodePayload rebuilds the typed payload of a stored example.
func DecodePayload(task TaskType, features, label []byte) (Payload, error) {
	switch task {
	case TaskDonorSelection:
		p := &DonorSelectionPayload{}
		return p, decodePair(task, features, label, &p.Features, &p.Label)
	case TaskUrgencyAssessment:
		p := &UrgencyAssessmentPayload{}
		return p, decodePair(task, features, label, &p.Features, &p.Label)
	case TaskInventorySelection:
		p := &InventorySelectionPayload{}
		return p, decodePair(task, features, label, &p.Features, &p.Label)
	case TaskTransportPlanning:
		p := &TransportPlanningPayload{}
		return p, decodePair(task, features, label, &p.Features, &p.Label)
	case TaskEligibilityAnalysis:
		p := &EligibilityAnalysisPayload{}
		return p, decodePair(task, features, label, &p.Features, &p.Label)
	}
	return nil, fmt.Errorf("unknown task type %q", task)
}

func decodePair(task TaskType, features, label []byte, f, l any) error {
	if err := json.Unmarshal(features, f); err != nil {
		return fmt.Errorf("decode %s features: %w", task, err)
	}
	if err := json.Unmarshal(label, l); err != nil {
		return fmt.Errorf("decode %s label: %w", task, err)
	}
	return nil
}
