package handler

import (
	"errors"
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"github.com/jengzang/transit-reports-backend-go/internal/service"
	"github.com/jengzang/transit-reports-backend-go/pkg/response"
)

// writeError translates a service error into a status code and envelope.
// Only infrastructure failures are logged; everything else is a client outcome.
func writeError(c *gin.Context, err error) {
	var distErr *service.DistanceError
	switch {
	case errors.As(err, &distErr):
		response.ErrorWithData(c, http.StatusUnprocessableEntity, distErr.Error(), gin.H{
			"distance_meters": distErr.DistanceMeters,
			"distance_km":     distErr.DistanceKm,
		})
	case errors.Is(err, service.ErrUnauthenticated):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrInvalidCrowdLevel),
		errors.Is(err, service.ErrInvalidCoordinates),
		errors.Is(err, service.ErrRouteNotFound),
		errors.Is(err, service.ErrRouteHasNoStops):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrSelfVerification),
		errors.Is(err, service.ErrAlreadyVerifiedByUser):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrReportNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrReportHasNoLocation):
		response.Error(c, http.StatusUnprocessableEntity, err.Error())
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.Error(err)
		response.InternalError(c, "internal error, please try again later")
	}
}

// outcome labels an error for metrics
func outcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, service.ErrOutOfGeofence):
		return "out_of_geofence"
	case errors.Is(err, service.ErrTooFarToVerify):
		return "too_far"
	case errors.Is(err, service.ErrSelfVerification):
		return "self"
	case errors.Is(err, service.ErrAlreadyVerifiedByUser):
		return "duplicate"
	case errors.Is(err, service.ErrReportNotFound), errors.Is(err, service.ErrRouteNotFound):
		return "not_found"
	case errors.Is(err, service.ErrStorage):
		return "error"
	default:
		return "invalid"
	}
}
