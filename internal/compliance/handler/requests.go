package handler

// SubmitVerificationRequest is the POST /compliance/identity-verification body.
type SubmitVerificationRequest struct {
	DocumentType    string   `json:"documentType"`
	DocumentNumber  string   `json:"documentNumber"`
	DocumentCountry string   `json:"documentCountry"`
	DocumentImage   string   `json:"documentImage"`
	SelfieImage     string   `json:"selfieImage"`
	GPSLatitude     *float64 `json:"gpsLatitude,omitempty"`
	GPSLongitude    *float64 `json:"gpsLongitude,omitempty"`
}

// GeoCheckRequest is the POST /compliance/geo-check body. The GPS fix is
// optional but must be complete when present.
type GeoCheckRequest struct {
	GPSLatitude  *float64 `json:"gpsLatitude,omitempty"`
	GPSLongitude *float64 `json:"gpsLongitude,omitempty"`
}

// ReviewRequest is the POST /compliance/admin/review-verification/{id} body.
// Approved is a pointer so a missing field is distinguishable from false.
type ReviewRequest struct {
	Approved *bool  `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}
