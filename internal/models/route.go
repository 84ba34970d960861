package models

import "time"

// Route represents a transit route and its ordered stops.
// Routes are maintained by route management; reports only read them.
type Route struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Stops     []Stop    `json:"stops"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Stop is a single stop on a route
type Stop struct {
	ID        int64   `json:"id" db:"id"`
	RouteID   int64   `json:"route_id" db:"route_id"`
	Name      string  `json:"name" db:"name"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	Sequence  int     `json:"sequence" db:"seq"`
}

// Coordinate is a WGS-84 point
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Coordinate returns the stop location
func (s Stop) Coordinate() Coordinate {
	return Coordinate{Latitude: s.Latitude, Longitude: s.Longitude}
}
