package service

import (
	"context"

	"github.com/jengzang/transit-reports-backend-go/internal/models"
)

// RouteService exposes route geometry read-only
type RouteService struct {
	routes RouteSource
}

// NewRouteService creates a new route service
func NewRouteService(routes RouteSource) *RouteService {
	return &RouteService{routes: routes}
}

// GetRoute retrieves a route with its stops
func (s *RouteService) GetRoute(ctx context.Context, id int64) (*models.Route, error) {
	route, err := s.routes.GetRoute(ctx, id)
	if err != nil {
		return nil, storageError("get route", err)
	}
	if route == nil {
		return nil, ErrRouteNotFound
	}
	return route, nil
}
