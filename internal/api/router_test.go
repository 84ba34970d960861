package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/transit-reports-backend-go/internal/config"
	"github.com/jengzang/transit-reports-backend-go/internal/database"
	"github.com/jengzang/transit-reports-backend-go/internal/geofence"
	"github.com/jengzang/transit-reports-backend-go/internal/handler"
	"github.com/jengzang/transit-reports-backend-go/internal/metrics"
	"github.com/jengzang/transit-reports-backend-go/internal/middleware"
	"github.com/jengzang/transit-reports-backend-go/internal/repository"
	"github.com/jengzang/transit-reports-backend-go/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	metrics.Register()

	db := database.OpenTestDB(t)
	routeRepo := repository.NewRouteRepository(db)
	reportRepo := repository.NewReportRepository(db)
	validator := geofence.NewValidator(0)

	return SetupRouter(&config.Config{RequestTimeout: time.Second}, Handlers{
		Reports: handler.NewReportHandler(
			service.NewReportSubmissionService(routeRepo, reportRepo, validator),
			service.NewVerificationQuorumEngine(reportRepo, validator),
			service.NewReportQueryService(reportRepo),
			nil,
		),
		Routes:  handler.NewRouteHandler(service.NewRouteService(routeRepo)),
		Tokens:  middleware.NewTokenValidator("test-secret"),
		Limiter: middleware.NewRateLimiter(1, 1, time.Minute),
	})
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	w := serve(r, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = serve(r, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "transit_reports_promotions_total")
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	w := serve(r, http.MethodOptions, "/api/v1/reports")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestWritesRequireAuth(t *testing.T) {
	r := newTestRouter(t)

	w := serve(r, http.MethodPost, "/api/v1/reports")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodPost, "/api/v1/reports/1/verifications")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/api/v1/reports")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestWritesAreRateLimited(t *testing.T) {
	r := newTestRouter(t)
	token, err := middleware.NewTokenValidator("test-secret").IssueToken("u1", time.Hour)
	require.NoError(t, err)

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	// empty body fails validation but still consumes the bucket
	assert.Equal(t, http.StatusBadRequest, post())
	assert.Equal(t, http.StatusTooManyRequests, post())
}
