package geo

// Coordinates is a GPS fix reported by the client device.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is the geolocation resolved from a client IP address.
type Location struct {
	Country     string   `json:"country"`
	CountryCode string   `json:"countryCode,omitempty"`
	Region      string   `json:"region,omitempty"`
	City        string   `json:"city,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Timezone    string   `json:"timezone,omitempty"`
	ISP         string   `json:"isp,omitempty"`
}

// CheckResult is the outcome of a geographic eligibility evaluation.
type CheckResult struct {
	IsAllowed            bool     `json:"isAllowed"`
	Region               string   `json:"region"`
	Reason               string   `json:"reason,omitempty"`
	RequiresVerification bool     `json:"requiresVerification"`
	Location             Location `json:"location"`
}
