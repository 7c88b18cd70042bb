package geo

import "math"

const (
	// RadiusOfEarthInKm is the mean Earth radius used for great-circle math.
	RadiusOfEarthInKm = 6371.01
)

// CoordinateBounds represents a bounding box with min/max latitude and longitude
type CoordinateBounds struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// DistanceKm calculates the great-circle distance in kilometers between two
// points on the Earth. For short distances (under ~22km), it uses an
// Equirectangular approximation to save CPU cycles; radius searches around a
// city fall almost entirely on this path. For longer distances, it falls back
// to the exact formula.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	if math.Abs(lat2-lat1) < 0.2 && math.Abs(lon2-lon1) < 0.2 {
		lat1Rad := lat1 * (math.Pi / 180)
		lat2Rad := lat2 * (math.Pi / 180)
		dLatRad := (lat2 - lat1) * (math.Pi / 180)
		dLonRad := (lon2 - lon1) * (math.Pi / 180)

		x := dLonRad * math.Cos((lat1Rad+lat2Rad)/2)
		y := dLatRad
		return RadiusOfEarthInKm * math.Sqrt(x*x+y*y)
	}

	lat1Rad := lat1 * (math.Pi / 180)
	lon1Rad := lon1 * (math.Pi / 180)
	lat2Rad := lat2 * (math.Pi / 180)
	lon2Rad := lon2 * (math.Pi / 180)

	deltaLon := lon2Rad - lon1Rad

	y := math.Sqrt(math.Pow(math.Cos(lat2Rad)*math.Sin(deltaLon), 2) +
		math.Pow(math.Cos(lat1Rad)*math.Sin(lat2Rad)-math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(deltaLon), 2))
	x := math.Sin(lat1Rad)*math.Sin(lat2Rad) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Cos(deltaLon)

	return RadiusOfEarthInKm * math.Atan2(y, x)
}

// CalculateBounds returns the bounding box containing every point within
// distanceKm of (lat, lon). The box over-covers near the poles; callers are
// expected to re-check candidates with DistanceKm.
func CalculateBounds(lat, lon, distanceKm float64) CoordinateBounds {
	latRadians := lat * math.Pi / 180

	latRadius := RadiusOfEarthInKm
	lonRadius := math.Cos(latRadians) * RadiusOfEarthInKm

	latOffset := distanceKm / latRadius * 180 / math.Pi
	lonOffset := distanceKm / lonRadius * 180 / math.Pi

	return CoordinateBounds{
		MinLat: lat - latOffset,
		MaxLat: lat + latOffset,
		MinLon: lon - lonOffset,
		MaxLon: lon + lonOffset,
	}
}

// IsOutOfBounds returns true only if the inner bounds have no overlap
// with the outer bounds.
func IsOutOfBounds(inner, outer CoordinateBounds) bool {
	return inner.MaxLat < outer.MinLat ||
		inner.MinLat > outer.MaxLat ||
		inner.MaxLon < outer.MinLon ||
		inner.MinLon > outer.MaxLon
}
