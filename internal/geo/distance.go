package geo

import "math"

const (
	earthRadiusKM = 6371

	// maxGPSDriftKM is the furthest a device GPS fix may sit from the IP
	// location before the two are treated as inconsistent.
	maxGPSDriftKM = 50
)

// Distance returns the great-circle distance in kilometres between two points
// using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	dLon := deg2rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

func deg2rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}

// Consistent reports whether a GPS fix agrees with the IP-resolved location.
// Locations without resolved coordinates can never be confirmed.
func Consistent(loc Location, gps Coordinates) bool {
	if loc.Latitude == nil || loc.Longitude == nil {
		return false
	}
	return Distance(*loc.Latitude, *loc.Longitude, gps.Latitude, gps.Longitude) <= maxGPSDriftKM
}
