package service

import (
	"context"

	"github.com/apex/log"

	"github.com/jengzang/transit-reports-backend-go/internal/geofence"
	"github.com/jengzang/transit-reports-backend-go/internal/models"
	"github.com/jengzang/transit-reports-backend-go/internal/spatial"
)

// SubmitRequest is a new observation from an authenticated user
type SubmitRequest struct {
	UserID      string
	RouteID     int64
	CrowdLevel  models.CrowdLevel
	DelayReason *string
	// Location is required; nil means the client omitted coordinates
	Location *models.Coordinate
}

// ReportSubmissionService admits new reports after validating them against route geometry
type ReportSubmissionService struct {
	routes    RouteSource
	reports   ReportStore
	validator geofence.Validator
}

// NewReportSubmissionService creates a new submission service
func NewReportSubmissionService(routes RouteSource, reports ReportStore, validator geofence.Validator) *ReportSubmissionService {
	return &ReportSubmissionService{
		routes:    routes,
		reports:   reports,
		validator: validator,
	}
}

// Submit validates and stores a report. Nothing is written unless every check passes,
// and failures are never retried here: resubmitting from a better position is up to the user.
func (s *ReportSubmissionService) Submit(ctx context.Context, req SubmitRequest) (*models.Report, error) {
	if req.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if !req.CrowdLevel.Valid() {
		return nil, ErrInvalidCrowdLevel
	}
	if req.Location == nil || !spatial.ValidCoordinate(req.Location.Latitude, req.Location.Longitude) {
		return nil, ErrInvalidCoordinates
	}

	route, err := s.routes.GetRoute(ctx, req.RouteID)
	if err != nil {
		return nil, storageError("load route", err)
	}
	if route == nil {
		return nil, ErrRouteNotFound
	}

	distanceKm, ok := geofence.NearestStopDistanceKm(*req.Location, route.Stops)
	if !ok {
		return nil, ErrRouteHasNoStops
	}
	if !s.validator.Within(distanceKm) {
		log.WithFields(log.Fields{
			"user_id":     req.UserID,
			"route_id":    req.RouteID,
			"distance_km": distanceKm,
		}).Info("report rejected outside geofence")
		return nil, &DistanceError{
			Err:            ErrOutOfGeofence,
			DistanceKm:     distanceKm,
			DistanceMeters: spatial.RoundMeters(distanceKm),
		}
	}

	location := *req.Location
	report := &models.Report{
		UserID:            req.UserID,
		RouteID:           route.ID,
		CrowdLevel:        req.CrowdLevel,
		DelayReason:       req.DelayReason,
		Location:          &location,
		GeofenceValidated: true,
		TrustScore:        models.DefaultTrustScore,
		PeerVerifications: 0,
		IsVerified:        false,
	}
	if err := s.reports.CreateReport(ctx, report); err != nil {
		return nil, storageError("create report", err)
	}

	log.WithFields(log.Fields{
		"report_id":   report.ID,
		"route_id":    report.RouteID,
		"crowd_level": report.CrowdLevel,
		"distance_km": distanceKm,
	}).Info("report submitted")

	return report, nil
}
