package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jengzang/transit-reports-backend-go/internal/database"
	"github.com/jengzang/transit-reports-backend-go/internal/models"
)

const reportColumns = `id, user_id, route_id, crowd_level, delay_reason, latitude, longitude,
		geofence_validated, trust_score, peer_verifications, is_verified, created_at`

// ReportRepository handles database operations for reports and their verifications
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var (
		r           models.Report
		delayReason sql.NullString
		lat, lng    sql.NullFloat64
		crowdLevel  string
	)
	err := row.Scan(
		&r.ID, &r.UserID, &r.RouteID, &crowdLevel, &delayReason, &lat, &lng,
		&r.GeofenceValidated, &r.TrustScore, &r.PeerVerifications, &r.IsVerified, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.CrowdLevel = models.CrowdLevel(crowdLevel)
	if delayReason.Valid {
		reason := delayReason.String
		r.DelayReason = &reason
	}
	if lat.Valid && lng.Valid {
		r.Location = &models.Coordinate{Latitude: lat.Float64, Longitude: lng.Float64}
	}
	return &r, nil
}

// CreateReport inserts a report with a single statement and sets its ID
func (r *ReportRepository) CreateReport(ctx context.Context, report *models.Report) error {
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	var lat, lng sql.NullFloat64
	if report.Location != nil {
		lat = sql.NullFloat64{Float64: report.Location.Latitude, Valid: true}
		lng = sql.NullFloat64{Float64: report.Location.Longitude, Valid: true}
	}
	var delayReason sql.NullString
	if report.DelayReason != nil {
		delayReason = sql.NullString{String: *report.DelayReason, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, `INSERT INTO reports
		(user_id, route_id, crowd_level, delay_reason, latitude, longitude,
		 geofence_validated, trust_score, peer_verifications, is_verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.UserID, report.RouteID, string(report.CrowdLevel), delayReason, lat, lng,
		report.GeofenceValidated, report.TrustScore, report.PeerVerifications, report.IsVerified, report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get report id: %w", err)
	}
	report.ID = id
	return nil
}

// GetReport retrieves a single report by ID. A missing report returns nil, nil.
func (r *ReportRepository) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	report, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

// ListReports retrieves reports with filtering and pagination, newest first
func (r *ReportRepository) ListReports(ctx context.Context, filter models.ReportFilter) ([]models.Report, int64, error) {
	var conditions []string
	var args []interface{}

	if filter.RouteID > 0 {
		conditions = append(conditions, "route_id = ?")
		args = append(args, filter.RouteID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Verified != nil {
		conditions = append(conditions, "is_verified = ?")
		args = append(args, *filter.Verified)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	offset := (filter.Page - 1) * filter.PageSize
	query := "SELECT " + reportColumns + " FROM reports" + where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, total, nil
}

// HasVerification reports whether verifierID already verified reportID.
// This is only a fast path; the unique key on insert is what actually prevents double votes.
func (r *ReportRepository) HasVerification(ctx context.Context, reportID int64, verifierID string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM verifications WHERE report_id = ? AND verifier_id = ? LIMIT 1`,
		reportID, verifierID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check verification: %w", err)
	}
	return true, nil
}

// ListVerifications returns the verifications of a report in insertion order
func (r *ReportRepository) ListVerifications(ctx context.Context, reportID int64) ([]models.Verification, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, report_id, verifier_id, latitude, longitude, distance_km, created_at
		FROM verifications WHERE report_id = ? ORDER BY id`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query verifications: %w", err)
	}
	defer rows.Close()

	verifications := []models.Verification{}
	for rows.Next() {
		var v models.Verification
		if err := rows.Scan(&v.ID, &v.ReportID, &v.VerifierID, &v.Latitude, &v.Longitude, &v.DistanceKm, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan verification: %w", err)
		}
		verifications = append(verifications, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate verifications: %w", err)
	}
	return verifications, nil
}

// RecordVerificationAndMaybePromote inserts v, bumps the report's counter by one and
// marks it verified once the counter reaches quorum, all in one transaction.
//
// The insert is the duplicate detector: a second vote by the same user fails on the
// (report_id, verifier_id) unique key and the whole transaction rolls back. The counter
// is bumped by a single UPDATE so concurrent voters never overwrite each other.
// is_verified is assigned before peer_verifications: MySQL evaluates SET left to right,
// SQLite evaluates every expression against the old row, so both see the pre-update count.
// The returned state is read inside the transaction after the update.
func (r *ReportRepository) RecordVerificationAndMaybePromote(ctx context.Context, v *models.Verification, quorum int) (models.ReportState, error) {
	var state models.ReportState
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	err := database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `INSERT INTO verifications
			(report_id, verifier_id, latitude, longitude, distance_km, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			v.ReportID, v.VerifierID, v.Latitude, v.Longitude, v.DistanceKm, v.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateVerification
			}
			return fmt.Errorf("failed to insert verification: %w", err)
		}
		if v.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get verification id: %w", err)
		}

		result, err = tx.ExecContext(ctx, `UPDATE reports
			SET is_verified = (is_verified OR peer_verifications + 1 >= ?),
			    peer_verifications = peer_verifications + 1
			WHERE id = ?`, quorum, v.ReportID)
		if err != nil {
			return fmt.Errorf("failed to update report counters: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get status of report update: %w", err)
		}
		if affected != 1 {
			return ErrReportMissing
		}

		err = tx.QueryRowContext(ctx, `SELECT peer_verifications, is_verified FROM reports WHERE id = ?`, v.ReportID).
			Scan(&state.PeerVerifications, &state.IsVerified)
		if err != nil {
			return fmt.Errorf("failed to read report state: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.ReportState{}, err
	}
	return state, nil
}
