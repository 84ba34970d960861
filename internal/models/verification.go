package models

import "time"

// Verification is one user's corroborating vote on another user's report.
// (ReportID, VerifierID) is unique.
type Verification struct {
	ID         int64     `json:"id" db:"id"`
	ReportID   int64     `json:"report_id" db:"report_id"`
	VerifierID string    `json:"verifier_id" db:"verifier_id"`
	Latitude   float64   `json:"latitude" db:"latitude"`
	Longitude  float64   `json:"longitude" db:"longitude"`
	DistanceKm float64   `json:"distance_km" db:"distance_km"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ReportState is the verification state of a report as read back after a commit
type ReportState struct {
	PeerVerifications int  `json:"peer_verifications"`
	IsVerified        bool `json:"is_verified"`
}

// VerificationResult is returned to the verifier
type VerificationResult struct {
	ReportID          int64   `json:"report_id"`
	PeerVerifications int     `json:"peer_verifications"`
	IsVerified        bool    `json:"is_verified"`
	DistanceKm        float64 `json:"distance_km"`
	// JustVerified is set on the single call that moved the report into the verified state
	JustVerified bool `json:"just_verified"`
}
