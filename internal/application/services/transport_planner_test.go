package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aftab48/Haemologix-sub000/internal/application/services"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
)

func TestTransportPlanner_Plan(t *testing.T) {
	planner := services.NewTransportPlanner(services.NewGeoEstimator())
	rush := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		distance float64
		urgency  entities.Urgency
		method   entities.TransportMethod
		eta      int
	}{
		{"critical and close", 10, entities.UrgencyCritical, entities.TransportAmbulance, 27},
		{"critical at ambulance limit", 15, entities.UrgencyCritical, entities.TransportCourier, 52},
		{"high within courier range", 30, entities.UrgencyHigh, entities.TransportCourier, 79},
		{"high at courier limit", 50, entities.UrgencyHigh, entities.TransportScheduled, 160},
		{"medium nearby", 5, entities.UrgencyMedium, entities.TransportScheduled, 70},
		{"low far away", 90, entities.UrgencyLow, entities.TransportScheduled, 240},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := planner.Plan(tt.distance, tt.urgency, 2, rush)
			require.NoError(t, err)
			assert.Equal(t, tt.method, plan.Method)
			assert.Equal(t, tt.eta, plan.ETAMinutes)
			assert.NotEmpty(t, plan.Reason)
		})
	}
}

func TestTransportPlanner_CourierUsesTraffic(t *testing.T) {
	planner := services.NewTransportPlanner(services.NewGeoEstimator())

	night := planner.PlanWithTraffic(20, entities.UrgencyHigh, 1, services.TrafficNight)
	rush := planner.PlanWithTraffic(20, entities.UrgencyHigh, 1, services.TrafficRushHour)

	assert.Equal(t, entities.TransportCourier, night.Method)
	assert.Less(t, night.ETAMinutes, rush.ETAMinutes)
}

func TestTransportPlanner_RejectsBadInput(t *testing.T) {
	planner := services.NewTransportPlanner(services.NewGeoEstimator())

	_, err := planner.Plan(-1, entities.UrgencyHigh, 1, time.Now())
	assert.Error(t, err)

	_, err = planner.Plan(5, "SOON", 1, time.Now())
	assert.Error(t, err)
}
