// Package geofence decides whether a location is close enough to a route to be trusted.
//
// Distance is measured to the nearest discrete stop only. A point on a long road
// segment between two stops is rejected when it is farther than the threshold from
// both of them; there is no point-to-polyline interpolation.
package geofence

import (
	"math"

	"github.com/jengzang/transit-reports-backend-go/internal/models"
	"github.com/jengzang/transit-reports-backend-go/internal/spatial"
)

// GeofenceThresholdKm is the admission radius around a stop, and the maximum
// distance between a verifier and the report they corroborate.
const GeofenceThresholdKm = 0.5

// NearestStopDistanceKm returns the distance from point to the closest stop.
// ok is false when stops is empty: the route has no geometry to validate against.
func NearestStopDistanceKm(point models.Coordinate, stops []models.Stop) (distanceKm float64, ok bool) {
	if len(stops) == 0 {
		return 0, false
	}

	distanceKm = math.Inf(1)
	for _, stop := range stops {
		d := spatial.GreatCircleDistanceKm(point.Latitude, point.Longitude, stop.Latitude, stop.Longitude)
		if d < distanceKm {
			distanceKm = d
		}
	}
	return distanceKm, true
}

// IsWithinGeofence applies GeofenceThresholdKm
func IsWithinGeofence(distanceKm float64) bool {
	return distanceKm <= GeofenceThresholdKm
}

// Validator applies a configurable threshold with the same rule as IsWithinGeofence
type Validator struct {
	ThresholdKm float64
}

// NewValidator returns a validator; a non-positive threshold falls back to GeofenceThresholdKm
func NewValidator(thresholdKm float64) Validator {
	if thresholdKm <= 0 || math.IsNaN(thresholdKm) {
		thresholdKm = GeofenceThresholdKm
	}
	return Validator{ThresholdKm: thresholdKm}
}

// Within reports whether distanceKm is inside the threshold (inclusive)
func (v Validator) Within(distanceKm float64) bool {
	return distanceKm <= v.ThresholdKm
}

// Distance measures the distance between two points in kilometers
func (v Validator) Distance(a, b models.Coordinate) float64 {
	return spatial.GreatCircleDistanceKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}
