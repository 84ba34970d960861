// Package routeimport loads routes and their stops from a GeoJSON
// FeatureCollection of Point features. Each stop feature carries the
// properties "route" (route name), "name" (stop name) and "seq"
// (position along the route, ascending).
package routeimport

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/apex/log"
	geojson "github.com/paulmach/go.geojson"

	"github.com/jengzang/transit-reports-backend-go/internal/models"
	"github.com/jengzang/transit-reports-backend-go/internal/spatial"
)

var ErrNoStops = errors.New("feature collection contains no stops")

// RouteWriter persists a route with its stops
type RouteWriter interface {
	CreateRoute(ctx context.Context, route *models.Route) error
}

// Parse converts a FeatureCollection into routes ordered by first appearance.
// Non-point features are skipped.
func Parse(data []byte) ([]models.Route, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geojson: %w", err)
	}

	var order []string
	byName := make(map[string]*models.Route)
	seen := make(map[string]map[int]bool)

	for i, feature := range fc.Features {
		if feature.Geometry == nil || !feature.Geometry.IsPoint() {
			log.WithField("feature", i).Debug("skipping non-point feature")
			continue
		}

		routeName, err := feature.PropertyString("route")
		if err != nil || routeName == "" {
			return nil, fmt.Errorf("feature %d: missing route property", i)
		}
		stopName, err := feature.PropertyString("name")
		if err != nil || stopName == "" {
			return nil, fmt.Errorf("feature %d: missing name property", i)
		}
		// JSON numbers decode as float64
		seq, err := feature.PropertyFloat64("seq")
		if err != nil {
			return nil, fmt.Errorf("feature %d: missing seq property", i)
		}

		point := feature.Geometry.Point
		if len(point) < 2 {
			return nil, fmt.Errorf("feature %d: point needs longitude and latitude", i)
		}
		lng, lat := point[0], point[1]
		if !spatial.ValidCoordinate(lat, lng) {
			return nil, fmt.Errorf("feature %d: invalid coordinate (%f, %f)", i, lat, lng)
		}

		route, ok := byName[routeName]
		if !ok {
			route = &models.Route{Name: routeName}
			byName[routeName] = route
			seen[routeName] = make(map[int]bool)
			order = append(order, routeName)
		}
		if seen[routeName][int(seq)] {
			return nil, fmt.Errorf("feature %d: duplicate seq %d on route %q", i, int(seq), routeName)
		}
		seen[routeName][int(seq)] = true

		route.Stops = append(route.Stops, models.Stop{
			Name:      stopName,
			Latitude:  lat,
			Longitude: lng,
			Sequence:  int(seq),
		})
	}

	if len(order) == 0 {
		return nil, ErrNoStops
	}

	routes := make([]models.Route, 0, len(order))
	for _, name := range order {
		route := byName[name]
		sort.Slice(route.Stops, func(a, b int) bool {
			return route.Stops[a].Sequence < route.Stops[b].Sequence
		})
		routes = append(routes, *route)
	}
	return routes, nil
}

// Import writes every route; it stops at the first failure
func Import(ctx context.Context, w RouteWriter, routes []models.Route) (int, error) {
	for i := range routes {
		route := &routes[i]
		if err := w.CreateRoute(ctx, route); err != nil {
			return i, fmt.Errorf("failed to import route %q: %w", route.Name, err)
		}
		log.WithFields(log.Fields{
			"route_id": route.ID,
			"name":     route.Name,
			"stops":    len(route.Stops),
		}).Info("route imported")
	}
	return len(routes), nil
}
