// Package geo provides great-circle distance math for geofence checks.
package geo

import "math"

// earthRadius is the mean Earth radius in meters.
const earthRadius = 6371000

// Distance returns the great-circle distance in meters between two
// coordinates given in degrees, computed with the haversine formula.
// Antimeridian and pole wraparound are not special-cased; accuracy is
// meter-level for the 1-1000 m radii used by patrols.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// WithinRadius reports whether the current position lies within
// radiusMeters of the target. The boundary is inclusive.
func WithinRadius(curLat, curLon, targetLat, targetLon, radiusMeters float64) bool {
	return Distance(curLat, curLon, targetLat, targetLon) <= radiusMeters
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
