// Package geo decides whether an earthquake falls inside a watch zone.
package geo

import (
	"math"

	"quakealert-backend/internal/model"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// DistanceKm returns the haversine distance between two points in kilometers.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r, lon1r := radians(lat1), radians(lon1)
	lat2r, lon2r := radians(lat2), radians(lon2)

	dlat := lat2r - lat1r
	dlon := lon2r - lon1r

	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1r)*math.Cos(lat2r)*math.Pow(math.Sin(dlon/2), 2)
	// Rounding can push a past 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Matches reports whether the event is inside the zone and strong enough.
func Matches(e model.Event, z model.WatchZone) bool {
	if e.Magnitude < z.MinMagnitude {
		return false
	}
	return DistanceKm(z.Latitude, z.Longitude, e.Latitude, e.Longitude) <= z.RadiusKm
}

// ProfileMatches reports whether any zone matches. No zones, no match.
func ProfileMatches(e model.Event, zones []model.WatchZone) bool {
	for _, z := range zones {
		if Matches(e, z) {
			return true
		}
	}
	return false
}
