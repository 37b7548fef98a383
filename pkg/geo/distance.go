package geo

import "math"

const (
	// EarthRadiusKm is the mean Earth radius used for Haversine distances.
	EarthRadiusKm = 6371.0
	// EarthRadiusMeters is EarthRadiusKm expressed in meters.
	EarthRadiusMeters = 6371e3
)

// haversine returns the central angle between two coordinates in radians.
func haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lng2 - lng1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// DistanceKm returns the great-circle distance in kilometers.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	return EarthRadiusKm * haversine(lat1, lng1, lat2, lng2)
}

// DistanceMeters returns the great-circle distance in meters.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	return EarthRadiusMeters * haversine(lat1, lng1, lat2, lng2)
}

// RoundTenth rounds a distance to one decimal place.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// ValidCoordinates reports whether lat/lng are inside the WGS84 ranges.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
