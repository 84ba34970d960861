package models

import "time"

// Event routing keys
const (
	EventReportSubmitted = "report.submitted"
	EventReportVerified  = "report.verified"
)

// ReportEvent is published after a report is created or promoted to verified
type ReportEvent struct {
	Type              string     `json:"type"`
	ReportID          int64      `json:"report_id"`
	RouteID           int64      `json:"route_id"`
	CrowdLevel        CrowdLevel `json:"crowd_level"`
	PeerVerifications int        `json:"peer_verifications"`
	IsVerified        bool       `json:"is_verified"`
	OccurredAt        time.Time  `json:"occurred_at"`
}
