// Package audit captures the compliance trail: per-decision location
// verification records and structured audit events fanned out to the
// event pipeline.
package audit

import (
	"time"

	"aibetix/internal/geo"
)

// LocationVerification is one row of the location check trail. One record is
// written for every compliance decision.
type LocationVerification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	IPAddress string           `json:"ipAddress"`
	GPS       *geo.Coordinates `json:"gps,omitempty"`
	IsAllowed bool             `json:"isAllowed"`
	Region    string           `json:"region"`
	Reason    string           `json:"reason,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId"`
	Actor     string    `json:"actor,omitempty"`
	Action    string    `json:"action"`
	SubjectID string    `json:"subjectId,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// Audit actions.
const (
	ActionVerificationSubmitted = "identity_verification_submitted"
	ActionVerificationReviewed  = "identity_verification_reviewed"
	ActionLocationCheck         = "location_check"
)
