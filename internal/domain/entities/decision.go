package entities

import "github.com/Aftab48/Haemologix-sub000/pkg/bloodtype"

// Urgency classifies how time-sensitive a request is.
type Urgency string

const (
	UrgencyLow      Urgency = "LOW"
	UrgencyMedium   Urgency = "MEDIUM"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyCritical Urgency = "CRITICAL"
)

// Valid reports whether u is a known urgency class.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// TravelMode is how a donor gets to the collection point.
type TravelMode string

const (
	ModeWalking         TravelMode = "walking"
	ModeBicycle         TravelMode = "bicycle"
	ModePublicTransport TravelMode = "public_transport"
	ModeCar             TravelMode = "car"
	ModeMotorcycle      TravelMode = "motorcycle"
)

// ModeETAs holds whole-minute ETAs for each travel mode.
type ModeETAs struct {
	Walking         int `json:"walking"`
	Bicycle         int `json:"bicycle"`
	PublicTransport int `json:"public_transport"`
	Car             int `json:"car"`
	Motorcycle      int `json:"motorcycle"`
}

// For returns the ETA of the given mode.
func (m ModeETAs) For(mode TravelMode) int {
	switch mode {
	case ModeWalking:
		return m.Walking
	case ModeBicycle:
		return m.Bicycle
	case ModePublicTransport:
		return m.PublicTransport
	case ModeMotorcycle:
		return m.Motorcycle
	default:
		return m.Car
	}
}

// TravelEstimate is the full travel picture for one distance and time of day.
type TravelEstimate struct {
	DistanceKm        float64    `json:"distance_km"`
	TrafficMultiplier float64    `json:"traffic_multiplier"`
	ETAs              ModeETAs   `json:"etas"`
	RecommendedMode   TravelMode `json:"recommended_mode"`
	RecommendedETA    int        `json:"recommended_eta_minutes"`
}

// ScoredDonor is a candidate with its derived travel figures and match score.
type ScoredDonor struct {
	Index      int        `json:"index"`
	Candidate  Candidate  `json:"candidate"`
	DistanceKm float64    `json:"distance_km"`
	ETAMinutes int        `json:"eta_minutes"`
	Mode       TravelMode `json:"mode"`
	Score      float64    `json:"score"`
}

// ScoredInventory is an inventory source with its match score.
type ScoredInventory struct {
	Index      int             `json:"index"`
	Source     InventorySource `json:"source"`
	DistanceKm float64         `json:"distance_km"`
	Score      float64         `json:"score"`
}

// UrgencyAssessment is the urgency class plus its normalized priority.
type UrgencyAssessment struct {
	BloodType     bloodtype.Type   `json:"blood_type"`
	Urgency       Urgency          `json:"urgency"`
	DaysRemaining float64          `json:"days_remaining"`
	PriorityScore float64          `json:"priority_score"`
	Rarity        bloodtype.Rarity `json:"rarity"`
}

// TransportMethod is how units move between a source and a hospital.
type TransportMethod string

const (
	TransportAmbulance TransportMethod = "ambulance"
	TransportCourier   TransportMethod = "courier"
	TransportScheduled TransportMethod = "scheduled"
)

// Valid reports whether m is a known method.
func (m TransportMethod) Valid() bool {
	switch m {
	case TransportAmbulance, TransportCourier, TransportScheduled:
		return true
	}
	return false
}

// TransportPlan is the chosen fulfillment method and its ETA.
type TransportPlan struct {
	Method     TransportMethod `json:"method"`
	ETAMinutes int             `json:"eta_minutes"`
	DistanceKm float64         `json:"distance_km"`
	Reason     string          `json:"reason"`
}

// DecisionSource records which path produced a decision.
type DecisionSource string

const (
	SourceModel     DecisionSource = "model"
	SourceHeuristic DecisionSource = "heuristic"
)
