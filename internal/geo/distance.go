package geo

import "math"

// EarthRadiusMiles is the sphere radius used for all great-circle math.
// It matches the constant the rest of the system (and its stored query
// results) were produced with, so don't change it casually.
const EarthRadiusMiles = 3959.0

// milesPerDegreeLat is the meridian arc length of one degree, used to turn a
// mile radius into a bounding box in degree space.
const milesPerDegreeLat = EarthRadiusMiles * math.Pi / 180

// Haversine returns the great-circle distance between two points in miles.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := hsin(dLat) + math.Cos(lat1)*math.Cos(lat2)*hsin(dLon)
	return 2 * EarthRadiusMiles * math.Asin(math.Sqrt(h))
}

func hsin(theta float64) float64 {
	s := math.Sin(theta / 2)
	return s * s
}
