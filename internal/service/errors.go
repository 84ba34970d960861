package service

import (
	"errors"
	"fmt"
)

// Input/validation errors
var (
	ErrUnauthenticated    = errors.New("missing authenticated user")
	ErrInvalidCrowdLevel  = errors.New("crowd level must be one of Light, Moderate, Heavy")
	ErrInvalidCoordinates = errors.New("latitude and longitude are required and must be valid")
	ErrRouteNotFound      = errors.New("route not found")
	ErrRouteHasNoStops    = errors.New("route has no stops and cannot accept reports")
)

// Policy rejections. Returned inside a *DistanceError.
var (
	ErrOutOfGeofence  = errors.New("location is too far from the route")
	ErrTooFarToVerify = errors.New("location is too far from the report to verify it")
)

// Conflicts and lookups
var (
	ErrReportNotFound        = errors.New("report not found")
	ErrSelfVerification      = errors.New("cannot verify your own report")
	ErrAlreadyVerifiedByUser = errors.New("you have already verified this report")
	ErrReportHasNoLocation   = errors.New("report has no location to verify against")
)

// ErrStorage marks infrastructure failures; the underlying error is wrapped alongside it
var ErrStorage = errors.New("storage failure")

// DistanceError carries the measured distance of a geofence rejection
type DistanceError struct {
	Err            error
	DistanceKm     float64
	DistanceMeters int
}

func (e *DistanceError) Error() string {
	return fmt.Sprintf("%v (%d m away)", e.Err, e.DistanceMeters)
}

func (e *DistanceError) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
