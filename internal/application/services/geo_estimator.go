package services

import (
	"math"
	"time"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
)

const (
	earthRadiusKm = 6371.0

	// ETABufferMinutes covers preparation and check-in at the collection point.
	ETABufferMinutes = 25

	walkingMaxKm = 1.5
	bicycleMaxKm = 5.0
	publicMaxKm  = 10.0
)

// Traffic multipliers by time of day
const (
	TrafficRushHour = 1.5
	TrafficNormal   = 1.0
	TrafficNight    = 0.8
)

type modeSpeed struct {
	mode      entities.TravelMode
	kmh       float64
	motorized bool
}

var modeSpeeds = []modeSpeed{
	{entities.ModeWalking, 5, false},
	{entities.ModeBicycle, 15, false},
	{entities.ModePublicTransport, 25, true},
	{entities.ModeCar, 40, true},
	{entities.ModeMotorcycle, 50, true},
}

// GeoEstimator approximates distances and travel times. It is stateless and
// assumes finite coordinates; validate with entities.Location.Validate first.
type GeoEstimator struct{}

// NewGeoEstimator creates a new geo estimator
func NewGeoEstimator() *GeoEstimator {
	return &GeoEstimator{}
}

// Distance returns the great-circle distance in km, rounded to 0.1 km.
func (g *GeoEstimator) Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return math.Round(earthRadiusKm*c*10) / 10
}

// DistanceBetween is Distance for two locations.
func (g *GeoEstimator) DistanceBetween(from, to entities.Location) float64 {
	return g.Distance(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
}

// TrafficMultiplier returns the congestion factor for an hour of the day.
// Rush hours are 07-09 and 17-19; night is 22-05.
func (g *GeoEstimator) TrafficMultiplier(hour int) float64 {
	h := ((hour % 24) + 24) % 24
	switch {
	case (h >= 7 && h <= 9) || (h >= 17 && h <= 19):
		return TrafficRushHour
	case h >= 22 || h <= 5:
		return TrafficNight
	default:
		return TrafficNormal
	}
}

// ETAByMode returns whole-minute ETAs per mode at the given hour.
func (g *GeoEstimator) ETAByMode(distanceKm float64, hour int) entities.ModeETAs {
	return g.ETAByModeWithTraffic(distanceKm, g.TrafficMultiplier(hour))
}

// ETAByModeWithTraffic is ETAByMode with an explicit traffic multiplier.
func (g *GeoEstimator) ETAByModeWithTraffic(distanceKm, traffic float64) entities.ModeETAs {
	var etas entities.ModeETAs
	for _, ms := range modeSpeeds {
		minutes := distanceKm / ms.kmh * 60
		if ms.motorized {
			minutes *= traffic
		}
		eta := ceilMinutes(minutes + ETABufferMinutes)

		switch ms.mode {
		case entities.ModeWalking:
			etas.Walking = eta
		case entities.ModeBicycle:
			etas.Bicycle = eta
		case entities.ModePublicTransport:
			etas.PublicTransport = eta
		case entities.ModeCar:
			etas.Car = eta
		case entities.ModeMotorcycle:
			etas.Motorcycle = eta
		}
	}
	return etas
}

// RecommendMode picks the travel mode for a distance.
func (g *GeoEstimator) RecommendMode(distanceKm float64) entities.TravelMode {
	switch {
	case distanceKm <= walkingMaxKm:
		return entities.ModeWalking
	case distanceKm <= bicycleMaxKm:
		return entities.ModeBicycle
	case distanceKm <= publicMaxKm:
		return entities.ModePublicTransport
	default:
		return entities.ModeCar
	}
}

// Estimate returns every ETA plus the recommended mode and its ETA.
func (g *GeoEstimator) Estimate(distanceKm float64, at time.Time) entities.TravelEstimate {
	traffic := g.TrafficMultiplier(at.Hour())
	etas := g.ETAByModeWithTraffic(distanceKm, traffic)
	mode := g.RecommendMode(distanceKm)

	return entities.TravelEstimate{
		DistanceKm:        distanceKm,
		TrafficMultiplier: traffic,
		ETAs:              etas,
		RecommendedMode:   mode,
		RecommendedETA:    etas.For(mode),
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ceilMinutes rounds up after trimming float noise, so 43.0000000001 is 43.
func ceilMinutes(m float64) int {
	return int(math.Ceil(math.Round(m*1e6) / 1e6))
}
