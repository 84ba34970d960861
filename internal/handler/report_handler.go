package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"github.com/jengzang/transit-reports-backend-go/internal/events"
	"github.com/jengzang/transit-reports-backend-go/internal/metrics"
	"github.com/jengzang/transit-reports-backend-go/internal/middleware"
	"github.com/jengzang/transit-reports-backend-go/internal/models"
	"github.com/jengzang/transit-reports-backend-go/internal/service"
	"github.com/jengzang/transit-reports-backend-go/pkg/response"
)

const publishTimeout = 2 * time.Second

// SubmitReportRequest is the body of POST /api/v1/reports
type SubmitReportRequest struct {
	RouteID     int64    `json:"route_id" binding:"required"`
	CrowdLevel  string   `json:"crowd_level"`
	DelayReason *string  `json:"delay_reason"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// VerifyReportRequest is the body of POST /api/v1/reports/:id/verifications
type VerifyReportRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ReportHandler handles HTTP requests for reports and verifications
type ReportHandler struct {
	submission *service.ReportSubmissionService
	engine     *service.VerificationQuorumEngine
	query      *service.ReportQueryService
	publisher  events.Publisher
}

// NewReportHandler creates a new report handler
func NewReportHandler(
	submission *service.ReportSubmissionService,
	engine *service.VerificationQuorumEngine,
	query *service.ReportQueryService,
	publisher events.Publisher,
) *ReportHandler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ReportHandler{
		submission: submission,
		engine:     engine,
		query:      query,
		publisher:  publisher,
	}
}

func coordinate(lat, lng *float64) *models.Coordinate {
	if lat == nil || lng == nil {
		return nil
	}
	return &models.Coordinate{Latitude: *lat, Longitude: *lng}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.BadRequest(c, "Invalid report ID")
		return 0, false
	}
	return id, true
}

// SubmitReport handles POST /api/v1/reports
func (h *ReportHandler) SubmitReport(c *gin.Context) {
	var req SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	// An unknown level is passed through as-is and rejected by the service
	crowdLevel, ok := models.ParseCrowdLevel(req.CrowdLevel)
	if !ok {
		crowdLevel = models.CrowdLevel(req.CrowdLevel)
	}

	report, err := h.submission.Submit(c.Request.Context(), service.SubmitRequest{
		UserID:      middleware.UserID(c),
		RouteID:     req.RouteID,
		CrowdLevel:  crowdLevel,
		DelayReason: req.DelayReason,
		Location:    coordinate(req.Latitude, req.Longitude),
	})
	metrics.SubmissionsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		writeError(c, err)
		return
	}

	h.publish(models.EventReportSubmitted, models.ReportEvent{
		Type:       models.EventReportSubmitted,
		ReportID:   report.ID,
		RouteID:    report.RouteID,
		CrowdLevel: report.CrowdLevel,
		OccurredAt: report.CreatedAt,
	})

	response.Created(c, report)
}

// GetReport handles GET /api/v1/reports/:id
func (h *ReportHandler) GetReport(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	report, err := h.query.GetReport(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, report)
}

// ListReports handles GET /api/v1/reports
func (h *ReportHandler) ListReports(c *gin.Context) {
	var filter models.ReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.query.ListReports(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// VerifyReport handles POST /api/v1/reports/:id/verifications
func (h *ReportHandler) VerifyReport(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req VerifyReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	location := coordinate(req.Latitude, req.Longitude)
	if location == nil {
		metrics.VerificationsTotal.WithLabelValues("invalid").Inc()
		writeError(c, service.ErrInvalidCoordinates)
		return
	}

	result, err := h.engine.Verify(c.Request.Context(), middleware.UserID(c), id, *location)
	metrics.VerificationsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		writeError(c, err)
		return
	}

	if result.JustVerified {
		metrics.PromotionsTotal.Inc()
		h.publish(models.EventReportVerified, models.ReportEvent{
			Type:              models.EventReportVerified,
			ReportID:          result.ReportID,
			PeerVerifications: result.PeerVerifications,
			IsVerified:        result.IsVerified,
			OccurredAt:        time.Now().UTC(),
		})
	}

	response.Success(c, result)
}

// ListVerifications handles GET /api/v1/reports/:id/verifications
func (h *ReportHandler) ListVerifications(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	verifications, err := h.query.ListVerifications(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"data":  verifications,
		"count": len(verifications),
	})
}

// publish runs after the write has committed; failure only costs the event
func (h *ReportHandler) publish(routingKey string, event models.ReportEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := h.publisher.Publish(ctx, routingKey, event); err != nil {
		metrics.EventPublishErrorsTotal.Inc()
		log.WithError(err).WithFields(log.Fields{
			"routing_key": routingKey,
			"report_id":   event.ReportID,
		}).Warn("failed to publish report event")
	}
}
