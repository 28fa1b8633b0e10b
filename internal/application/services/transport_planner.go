package services

import (
	"fmt"
	"math"
	"time"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

const (
	ambulanceMaxKm       = 15.0
	ambulanceSpeedKmh    = 50.0
	ambulanceOverheadMin = 15

	courierMaxKm = 50.0

	scheduledSpeedKmh    = 30.0
	scheduledOverheadMin = 60
)

// TransportPlanner chooses how units travel from a source to the requester.
type TransportPlanner struct {
	geo *GeoEstimator
}

// NewTransportPlanner creates a new transport planner
func NewTransportPlanner(geo *GeoEstimator) *TransportPlanner {
	return &TransportPlanner{geo: geo}
}

// Plan chooses a transport method using the traffic at the given time.
func (p *TransportPlanner) Plan(distanceKm float64, urgency entities.Urgency, units int, at time.Time) (entities.TransportPlan, error) {
	if math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) || distanceKm < 0 {
		return entities.TransportPlan{}, apperrors.NewValidationError("distance must be a finite, non-negative number")
	}
	if !urgency.Valid() {
		return entities.TransportPlan{}, apperrors.NewValidationErrorf("unknown urgency %q", urgency)
	}
	return p.PlanWithTraffic(distanceKm, urgency, units, p.geo.TrafficMultiplier(at.Hour())), nil
}

// PlanWithTraffic is the decision tree: ambulance for close critical
// requests, courier for urgent requests within 50 km, scheduled otherwise.
func (p *TransportPlanner) PlanWithTraffic(distanceKm float64, urgency entities.Urgency, units int, traffic float64) entities.TransportPlan {
	plan := entities.TransportPlan{DistanceKm: distanceKm}
	urgent := urgency == entities.UrgencyCritical || urgency == entities.UrgencyHigh

	switch {
	case urgency == entities.UrgencyCritical && distanceKm < ambulanceMaxKm:
		plan.Method = entities.TransportAmbulance
		plan.ETAMinutes = ceilMinutes(distanceKm/ambulanceSpeedKmh*60) + ambulanceOverheadMin
		plan.Reason = fmt.Sprintf("critical request %.1f km away, dispatching emergency transport for %d units", distanceKm, units)
	case urgent && distanceKm < courierMaxKm:
		plan.Method = entities.TransportCourier
		plan.ETAMinutes = p.geo.ETAByModeWithTraffic(distanceKm, traffic).Motorcycle
		plan.Reason = fmt.Sprintf("%s request within %.0f km, courier with traffic factor %.1f", urgency, courierMaxKm, traffic)
	default:
		plan.Method = entities.TransportScheduled
		plan.ETAMinutes = ceilMinutes(distanceKm/scheduledSpeedKmh*60) + scheduledOverheadMin
		plan.Reason = fmt.Sprintf("%s request %.1f km away, batching on scheduled transport", urgency, distanceKm)
	}
	return plan
}
