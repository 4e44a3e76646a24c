package identity

import (
	"time"

	"aibetix/internal/geo"
)

// DocumentType enumerates the accepted identity document kinds.
type DocumentType string

const (
	DocumentPassport       DocumentType = "passport"
	DocumentNationalID     DocumentType = "national_id"
	DocumentDriversLicense DocumentType = "drivers_license"
	DocumentUtilityBill    DocumentType = "utility_bill"
)

// Valid reports whether t is one of the accepted document types.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentPassport, DocumentNationalID, DocumentDriversLicense, DocumentUtilityBill:
		return true
	}
	return false
}

// Status is the review state of a verification request.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Verification is a single identity verification request and its review state.
type Verification struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	DocumentType    DocumentType     `json:"documentType"`
	DocumentNumber  string           `json:"documentNumber"`
	DocumentCountry string           `json:"documentCountry"`
	DocumentImage   string           `json:"-"`
	SelfieImage     string           `json:"-"`
	GPS             *geo.Coordinates `json:"gps,omitempty"`
	IPAddress       string           `json:"ipAddress"`
	UserAgent       string           `json:"userAgent"`
	Device          string           `json:"device,omitempty"`
	Status          Status           `json:"status"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
	SubmittedAt     time.Time        `json:"submittedAt"`
	VerifiedAt      *time.Time       `json:"verifiedAt,omitempty"`
	ReviewedBy      string           `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time       `json:"reviewedAt,omitempty"`
}

// Result is the caller-facing view of a verification.
type Result struct {
	IsVerified     bool       `json:"isVerified"`
	VerificationID string     `json:"verificationId"`
	Status         string     `json:"status"`
	Reason         string     `json:"reason,omitempty"`
	VerifiedAt     *time.Time `json:"verifiedAt,omitempty"`
}

// ResultOf converts a stored verification into its caller-facing view. The
// status is reported in lowercase.
func ResultOf(v *Verification) *Result {
	if v == nil {
		return nil
	}
	return &Result{
		IsVerified:     v.Status == StatusApproved,
		VerificationID: v.ID,
		Status:         lowerStatus(v.Status),
		Reason:         v.RejectionReason,
		VerifiedAt:     v.VerifiedAt,
	}
}

func lowerStatus(s Status) string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	}
	return ""
}
