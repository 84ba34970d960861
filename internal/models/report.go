package models

import (
	"strings"
	"time"
)

// CrowdLevel is the observed crowding on a vehicle or platform
type CrowdLevel string

// CrowdLevel constants
const (
	CrowdLevelLight    CrowdLevel = "Light"
	CrowdLevelModerate CrowdLevel = "Moderate"
	CrowdLevelHeavy    CrowdLevel = "Heavy"
)

// DefaultTrustScore is written on every new report. Nothing recomputes it yet.
const DefaultTrustScore = 1.0

// ParseCrowdLevel maps user input onto the closed crowd level set.
// Matching is case-insensitive; the canonical spelling is returned.
func ParseCrowdLevel(s string) (CrowdLevel, bool) {
	for _, level := range []CrowdLevel{CrowdLevelLight, CrowdLevelModerate, CrowdLevelHeavy} {
		if strings.EqualFold(strings.TrimSpace(s), string(level)) {
			return level, true
		}
	}
	return "", false
}

// Valid reports whether the level is one of the enumerated values
func (c CrowdLevel) Valid() bool {
	switch c {
	case CrowdLevelLight, CrowdLevelModerate, CrowdLevelHeavy:
		return true
	}
	return false
}

// Report is a commuter observation of crowding/delay on a route
type Report struct {
	ID          int64      `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	RouteID     int64      `json:"route_id" db:"route_id"`
	CrowdLevel  CrowdLevel `json:"crowd_level" db:"crowd_level"`
	DelayReason *string    `json:"delay_reason,omitempty" db:"delay_reason"`

	// Nil only for rows written outside this service
	Location *Coordinate `json:"location,omitempty"`

	GeofenceValidated bool    `json:"geofence_validated" db:"geofence_validated"`
	TrustScore        float64 `json:"trust_score" db:"trust_score"`
	PeerVerifications int     `json:"peer_verifications" db:"peer_verifications"`
	IsVerified        bool    `json:"is_verified" db:"is_verified"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ReportsResponse represents a paginated response of reports
type ReportsResponse struct {
	Data       []Report `json:"data"`
	Total      int64    `json:"total"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	TotalPages int      `json:"totalPages"`
}
