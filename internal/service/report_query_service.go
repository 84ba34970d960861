package service

import (
	"context"
	"math"

	"github.com/jengzang/transit-reports-backend-go/internal/models"
)

// ReportQueryService handles read-only report queries
type ReportQueryService struct {
	reports ReportReader
}

// NewReportQueryService creates a new report query service
func NewReportQueryService(reports ReportReader) *ReportQueryService {
	return &ReportQueryService{reports: reports}
}

// GetReport retrieves a single report by ID
func (s *ReportQueryService) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	report, err := s.reports.GetReport(ctx, id)
	if err != nil {
		return nil, storageError("get report", err)
	}
	if report == nil {
		return nil, ErrReportNotFound
	}
	return report, nil
}

// ListReports retrieves reports with filtering and pagination
func (s *ReportQueryService) ListReports(ctx context.Context, filter models.ReportFilter) (*models.ReportsResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 50
	}
	if filter.PageSize > 500 {
		filter.PageSize = 500
	}

	reports, total, err := s.reports.ListReports(ctx, filter)
	if err != nil {
		return nil, storageError("list reports", err)
	}

	return &models.ReportsResponse{
		Data:       reports,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.PageSize))),
	}, nil
}

// ListVerifications returns the verifications recorded for a report
func (s *ReportQueryService) ListVerifications(ctx context.Context, reportID int64) ([]models.Verification, error) {
	if _, err := s.GetReport(ctx, reportID); err != nil {
		return nil, err
	}
	verifications, err := s.reports.ListVerifications(ctx, reportID)
	if err != nil {
		return nil, storageError("list verifications", err)
	}
	return verifications, nil
}
