package service

import (
	"context"

	"github.com/jengzang/transit-reports-backend-go/internal/models"
)

// RouteSource loads route geometry. A missing route is nil, nil.
type RouteSource interface {
	GetRoute(ctx context.Context, id int64) (*models.Route, error)
}

// ReportStore persists reports and owns the consistency boundary for verification
type ReportStore interface {
	CreateReport(ctx context.Context, report *models.Report) error
	// GetReport returns nil, nil for a missing report
	GetReport(ctx context.Context, id int64) (*models.Report, error)
	HasVerification(ctx context.Context, reportID int64, verifierID string) (bool, error)
	// RecordVerificationAndMaybePromote must insert, increment and promote atomically and
	// return repository.ErrDuplicateVerification when the pair already exists
	RecordVerificationAndMaybePromote(ctx context.Context, v *models.Verification, quorum int) (models.ReportState, error)
}

// ReportReader serves read-only report queries
type ReportReader interface {
	GetReport(ctx context.Context, id int64) (*models.Report, error)
	ListReports(ctx context.Context, filter models.ReportFilter) ([]models.Report, int64, error)
	ListVerifications(ctx context.Context, reportID int64) ([]models.Verification, error)
}
