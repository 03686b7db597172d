package geo

import "math"

const earthRadiusMeters = 6371000.0

// Coordinates as reported by a client. A zero value is "not supplied".
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Plausible reports whether the pair can be trusted enough to measure
// against a geofence. The exact (0,0) pair is treated as a client that
// failed to acquire a fix, not as a point in the Gulf of Guinea.
func (c Coordinates) Plausible() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return false
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return false
	}
	if c.Latitude == 0 && c.Longitude == 0 {
		return false
	}
	return true
}

// Distance returns the great-circle distance in meters between two points
// using the haversine formula on a spherical Earth.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// WithinRange reports whether the reported point lies inside the geofence.
// The boundary itself is in range. The measured distance is returned for
// audit trails either way.
func WithinRange(reported Coordinates, centerLat, centerLon, thresholdMeters float64) (bool, float64) {
	d := Distance(reported.Latitude, reported.Longitude, centerLat, centerLon)
	return d <= thresholdMeters, d
}
