package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jengzang/transit-reports-backend-go/internal/database"
	"github.com/jengzang/transit-reports-backend-go/internal/models"
)

// RouteRepository reads routes and their stops
type RouteRepository struct {
	db *sql.DB
}

// NewRouteRepository creates a new route repository
func NewRouteRepository(db *sql.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// GetRoute retrieves a route with its stops ordered by sequence.
// A missing route returns nil, nil.
func (r *RouteRepository) GetRoute(ctx context.Context, id int64) (*models.Route, error) {
	var route models.Route
	err := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM routes WHERE id = ?`, id).
		Scan(&route.ID, &route.Name, &route.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get route: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, route_id, name, latitude, longitude, seq
		FROM stops WHERE route_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query stops: %w", err)
	}
	defer rows.Close()

	route.Stops = []models.Stop{}
	for rows.Next() {
		var s models.Stop
		if err := rows.Scan(&s.ID, &s.RouteID, &s.Name, &s.Latitude, &s.Longitude, &s.Sequence); err != nil {
			return nil, fmt.Errorf("failed to scan stop: %w", err)
		}
		route.Stops = append(route.Stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stops: %w", err)
	}

	return &route, nil
}

// CreateRoute inserts a route and its stops in one transaction and fills in the generated IDs.
// Used by the route importer; the service itself never writes routes.
func (r *RouteRepository) CreateRoute(ctx context.Context, route *models.Route) error {
	if route.CreatedAt.IsZero() {
		route.CreatedAt = time.Now().UTC()
	}

	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `INSERT INTO routes (name, created_at) VALUES (?, ?)`, route.Name, route.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert route: %w", err)
		}
		route.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get route id: %w", err)
		}

		for i := range route.Stops {
			s := &route.Stops[i]
			s.RouteID = route.ID
			result, err := tx.ExecContext(ctx, `INSERT INTO stops (route_id, name, latitude, longitude, seq)
				VALUES (?, ?, ?, ?, ?)`, s.RouteID, s.Name, s.Latitude, s.Longitude, s.Sequence)
			if err != nil {
				return fmt.Errorf("failed to insert stop %q: %w", s.Name, err)
			}
			if s.ID, err = result.LastInsertId(); err != nil {
				return fmt.Errorf("failed to get stop id: %w", err)
			}
		}
		return nil
	})
}
