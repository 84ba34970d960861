package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/transit-reports-backend-go/internal/service"
	"github.com/jengzang/transit-reports-backend-go/pkg/response"
)

// RouteHandler serves route geometry so clients can show where reports are accepted
type RouteHandler struct {
	routeService *service.RouteService
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(routeService *service.RouteService) *RouteHandler {
	return &RouteHandler{routeService: routeService}
}

// GetRoute handles GET /api/v1/routes/:id
func (h *RouteHandler) GetRoute(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid route ID")
		return
	}

	route, err := h.routeService.GetRoute(c.Request.Context(), id)
	if errors.Is(err, service.ErrRouteNotFound) {
		response.NotFound(c, "Route not found")
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, route)
}
