package service

import (
	"context"
	"errors"

	"github.com/apex/log"

	"github.com/jengzang/transit-reports-backend-go/internal/geofence"
	"github.com/jengzang/transit-reports-backend-go/internal/models"
	"github.com/jengzang/transit-reports-backend-go/internal/repository"
	"github.com/jengzang/transit-reports-backend-go/internal/spatial"
)

// VerificationQuorum is the number of independent verifications that promote a report
const VerificationQuorum = 3

// VerificationQuorumEngine records peer verifications and promotes reports at quorum.
//
// A report moves Unverified(0) -> Unverified(1) -> Unverified(2) -> Verified, one step
// per successful Verify. Verified is terminal. Every rejection leaves the report untouched.
type VerificationQuorumEngine struct {
	reports   ReportStore
	validator geofence.Validator
	quorum    int
}

// NewVerificationQuorumEngine creates a new verification engine
func NewVerificationQuorumEngine(reports ReportStore, validator geofence.Validator) *VerificationQuorumEngine {
	return &VerificationQuorumEngine{
		reports:   reports,
		validator: validator,
		quorum:    VerificationQuorum,
	}
}

// Verify records verifierID's corroboration of reportID from verifierLocation
func (e *VerificationQuorumEngine) Verify(ctx context.Context, verifierID string, reportID int64, verifierLocation models.Coordinate) (*models.VerificationResult, error) {
	if verifierID == "" {
		return nil, ErrUnauthenticated
	}
	if !spatial.ValidCoordinate(verifierLocation.Latitude, verifierLocation.Longitude) {
		return nil, ErrInvalidCoordinates
	}

	report, err := e.reports.GetReport(ctx, reportID)
	if err != nil {
		return nil, storageError("load report", err)
	}
	if report == nil {
		return nil, ErrReportNotFound
	}

	if verifierID == report.UserID {
		return nil, ErrSelfVerification
	}

	exists, err := e.reports.HasVerification(ctx, reportID, verifierID)
	if err != nil {
		return nil, storageError("check verification", err)
	}
	if exists {
		return nil, ErrAlreadyVerifiedByUser
	}

	if report.Location == nil {
		return nil, ErrReportHasNoLocation
	}

	distanceKm := e.validator.Distance(verifierLocation, *report.Location)
	if !e.validator.Within(distanceKm) {
		return nil, &DistanceError{
			Err:            ErrTooFarToVerify,
			DistanceKm:     distanceKm,
			DistanceMeters: spatial.RoundMeters(distanceKm),
		}
	}

	verification := &models.Verification{
		ReportID:   reportID,
		VerifierID: verifierID,
		Latitude:   verifierLocation.Latitude,
		Longitude:  verifierLocation.Longitude,
		DistanceKm: distanceKm,
	}
	state, err := e.reports.RecordVerificationAndMaybePromote(ctx, verification, e.quorum)
	switch {
	case errors.Is(err, repository.ErrDuplicateVerification):
		// lost the race against a concurrent request from the same user
		return nil, ErrAlreadyVerifiedByUser
	case errors.Is(err, repository.ErrReportMissing):
		return nil, ErrReportNotFound
	case err != nil:
		return nil, storageError("record verification", err)
	}

	// The counter moves by exactly one per commit, so only the vote that lands on the
	// quorum observes this combination.
	justVerified := state.IsVerified && state.PeerVerifications == e.quorum

	log.WithFields(log.Fields{
		"report_id":          reportID,
		"peer_verifications": state.PeerVerifications,
		"is_verified":        state.IsVerified,
		"distance_km":        distanceKm,
	}).Info("report verified by peer")

	return &models.VerificationResult{
		ReportID:          reportID,
		PeerVerifications: state.PeerVerifications,
		IsVerified:        state.IsVerified,
		DistanceKm:        spatial.RoundKm(distanceKm),
		JustVerified:      justVerified,
	}, nil
}
