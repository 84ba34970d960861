package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/transit-reports-backend-go/internal/database"
	"github.com/jengzang/transit-reports-backend-go/internal/geofence"
	"github.com/jengzang/transit-reports-backend-go/internal/middleware"
	"github.com/jengzang/transit-reports-backend-go/internal/models"
	"github.com/jengzang/transit-reports-backend-go/internal/repository"
	"github.com/jengzang/transit-reports-backend-go/internal/service"
)

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []models.ReportEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	if event, ok := message.(models.ReportEvent); ok {
		p.events = append(p.events, event)
	}
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router    *gin.Engine
	tokens    *middleware.TokenValidator
	publisher *recordingPublisher
	routeID   int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := database.OpenTestDB(t)
	routeRepo := repository.NewRouteRepository(db)
	reportRepo := repository.NewReportRepository(db)
	validator := geofence.NewValidator(geofence.GeofenceThresholdKm)

	route := &models.Route{Name: "LRT-1", Stops: []models.Stop{
		{Name: "Central", Latitude: 14.6000, Longitude: 120.9800, Sequence: 1},
		{Name: "Carriedo", Latitude: 14.5990, Longitude: 120.9810, Sequence: 2},
	}}
	require.NoError(t, routeRepo.CreateRoute(context.Background(), route))

	publisher := &recordingPublisher{}
	reports := NewReportHandler(
		service.NewReportSubmissionService(routeRepo, reportRepo, validator),
		service.NewVerificationQuorumEngine(reportRepo, validator),
		service.NewReportQueryService(reportRepo),
		publisher,
	)
	routes := NewRouteHandler(service.NewRouteService(routeRepo))
	tokens := middleware.NewTokenValidator("test-secret")

	r := gin.New()
	r.GET("/reports", reports.ListReports)
	r.GET("/reports/:id", reports.GetReport)
	r.GET("/reports/:id/verifications", reports.ListVerifications)
	r.GET("/routes/:id", routes.GetRoute)
	writes := r.Group("", middleware.Auth(tokens))
	writes.POST("/reports", reports.SubmitReport)
	writes.POST("/reports/:id/verifications", reports.VerifyReport)

	return &testServer{router: r, tokens: tokens, publisher: publisher, routeID: route.ID}
}

func (s *testServer) do(t *testing.T, method, path, user string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		token, err := s.tokens.IssueToken(user, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (s *testServer) submit(t *testing.T, user string) models.Report {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/reports", user, gin.H{
		"route_id":    s.routeID,
		"crowd_level": "Heavy",
		"latitude":    14.6000,
		"longitude":   120.9800,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var report models.Report
	require.NoError(t, json.Unmarshal(env.Data, &report))
	return report
}

func verifyPath(id int64) string {
	return fmt.Sprintf("/reports/%d/verifications", id)
}

var nearby = gin.H{"latitude": 14.6003, "longitude": 120.9800}

func TestSubmitReport(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodPost, "/reports", "u1", gin.H{
		"route_id":     s.routeID,
		"crowd_level":  "moderate",
		"delay_reason": "signal failure",
		"latitude":     14.6003,
		"longitude":    120.9800,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var report models.Report
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.NotZero(t, report.ID)
	assert.Equal(t, "u1", report.UserID)
	assert.Equal(t, models.CrowdLevelModerate, report.CrowdLevel)
	assert.True(t, report.GeofenceValidated)
	assert.Equal(t, 0, report.PeerVerifications)
	assert.False(t, report.IsVerified)
	require.NotNil(t, report.DelayReason)
	assert.Equal(t, "signal failure", *report.DelayReason)

	require.Len(t, s.publisher.events, 1)
	assert.Equal(t, models.EventReportSubmitted, s.publisher.keys[0])
	assert.Equal(t, report.ID, s.publisher.events[0].ReportID)
}

func TestSubmitReportRejections(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		user   string
		body   gin.H
		status int
	}{
		{
			name:   "no token",
			body:   gin.H{"route_id": s.routeID, "crowd_level": "Light", "latitude": 14.6, "longitude": 120.98},
			status: http.StatusUnauthorized,
		},
		{
			name:   "unknown crowd level",
			user:   "u1",
			body:   gin.H{"route_id": s.routeID, "crowd_level": "Packed", "latitude": 14.6, "longitude": 120.98},
			status: http.StatusBadRequest,
		},
		{
			name:   "missing coordinates",
			user:   "u1",
			body:   gin.H{"route_id": s.routeID, "crowd_level": "Light"},
			status: http.StatusBadRequest,
		},
		{
			name:   "latitude out of range",
			user:   "u1",
			body:   gin.H{"route_id": s.routeID, "crowd_level": "Light", "latitude": 91.0, "longitude": 120.98},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown route",
			user:   "u1",
			body:   gin.H{"route_id": s.routeID + 100, "crowd_level": "Light", "latitude": 14.6, "longitude": 120.98},
			status: http.StatusBadRequest,
		},
		{
			name:   "missing route",
			user:   "u1",
			body:   gin.H{"crowd_level": "Light", "latitude": 14.6, "longitude": 120.98},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := s.do(t, http.MethodPost, "/reports", tt.user, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
	assert.Empty(t, s.publisher.events)
}

func TestSubmitReportOutsideGeofence(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodPost, "/reports", "u1", gin.H{
		"route_id":    s.routeID,
		"crowd_level": "Light",
		"latitude":    14.6200,
		"longitude":   120.9800,
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var details struct {
		DistanceMeters int64 `json:"distance_meters"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &details))
	assert.Greater(t, details.DistanceMeters, int64(500))
	assert.Contains(t, env.Message, "m away")
}

func TestVerifyReportReachesQuorum(t *testing.T) {
	s := newTestServer(t)
	report := s.submit(t, "owner")

	for i, user := range []string{"v1", "v2", "v3"} {
		w, env := s.do(t, http.MethodPost, verifyPath(report.ID), user, nearby)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result models.VerificationResult
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Equal(t, i+1, result.PeerVerifications)
		assert.Equal(t, i == 2, result.IsVerified)
		assert.Equal(t, i == 2, result.JustVerified)
		assert.Greater(t, result.DistanceKm, 0.0)
	}

	// a fourth verifier is counted but does not promote again
	w, env := s.do(t, http.MethodPost, verifyPath(report.ID), "v4", nearby)
	require.Equal(t, http.StatusOK, w.Code)
	var result models.VerificationResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 4, result.PeerVerifications)
	assert.True(t, result.IsVerified)
	assert.False(t, result.JustVerified)

	verified := 0
	for _, key := range s.publisher.keys {
		if key == models.EventReportVerified {
			verified++
		}
	}
	assert.Equal(t, 1, verified)

	w, env = s.do(t, http.MethodGet, verifyPath(report.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data  []models.Verification `json:"data"`
		Count int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 4, list.Count)
}

func TestVerifyReportRejections(t *testing.T) {
	s := newTestServer(t)
	report := s.submit(t, "owner")

	w, _ := s.do(t, http.MethodPost, verifyPath(report.ID), "owner", nearby)
	assert.Equal(t, http.StatusConflict, w.Code, "self verification")

	w, _ = s.do(t, http.MethodPost, verifyPath(report.ID), "v1", nearby)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodPost, verifyPath(report.ID), "v1", nearby)
	assert.Equal(t, http.StatusConflict, w.Code, "duplicate verification")

	w, env := s.do(t, http.MethodPost, verifyPath(report.ID), "v2", gin.H{"latitude": 14.6200, "longitude": 120.9800})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "too far")
	assert.Contains(t, string(env.Data), "distance_meters")

	w, _ = s.do(t, http.MethodPost, verifyPath(report.ID+100), "v2", nearby)
	assert.Equal(t, http.StatusNotFound, w.Code, "missing report")

	w, _ = s.do(t, http.MethodPost, verifyPath(report.ID), "v2", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing coordinates")

	w, _ = s.do(t, http.MethodPost, verifyPath(report.ID), "", nearby)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "no token")

	w, env = s.do(t, http.MethodGet, fmt.Sprintf("/reports/%d", report.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored models.Report
	require.NoError(t, json.Unmarshal(env.Data, &stored))
	assert.Equal(t, 1, stored.PeerVerifications)
	assert.False(t, stored.IsVerified)
}

func TestVerifyReportPublishFailureDoesNotFailRequest(t *testing.T) {
	s := newTestServer(t)
	report := s.submit(t, "owner")
	s.publisher.err = fmt.Errorf("broker down")

	for _, user := range []string{"v1", "v2", "v3"} {
		w, _ := s.do(t, http.MethodPost, verifyPath(report.ID), user, nearby)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestGetReportAndList(t *testing.T) {
	s := newTestServer(t)
	first := s.submit(t, "u1")
	s.submit(t, "u2")

	w, _ := s.do(t, http.MethodGet, "/reports/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, fmt.Sprintf("/reports/%d", first.ID+100), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := s.do(t, http.MethodGet, fmt.Sprintf("/reports?routeId=%d&page=1&pageSize=1", s.routeID), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page models.ReportsResponse
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 2, page.TotalPages)

	w, env = s.do(t, http.MethodGet, "/reports?verified=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(0), page.Total)
}

func TestGetRoute(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, fmt.Sprintf("/routes/%d", s.routeID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var route models.Route
	require.NoError(t, json.Unmarshal(env.Data, &route))
	assert.Equal(t, "LRT-1", route.Name)
	require.Len(t, route.Stops, 2)
	assert.Equal(t, "Central", route.Stops[0].Name)

	w, _ = s.do(t, http.MethodGet, fmt.Sprintf("/routes/%d", s.routeID+100), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodGet, "/routes/x", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
