package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is returned for malformed coordinates, malformed ZIP
// codes, non-positive radii and limits. It is never retried.
var ErrInvalidArgument = errors.New("invalid argument")

// Point is a WGS-84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewPoint validates lat/lon ranges and returns a Point.
func NewPoint(lat, lon float64) (Point, error) {
	p := Point{Lat: lat, Lon: lon}
	if !p.Valid() {
		return Point{}, fmt.Errorf("%w: coordinates out of range (%v, %v)", ErrInvalidArgument, lat, lon)
	}
	return p, nil
}

// Valid reports whether the point lies in the valid lat/lon ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// PointFromColumns converts raw latitude/longitude columns into a point.
// The source data uses (0, 0) as a "not geocoded yet" sentinel, so that pair
// maps to nil rather than a literal point in the Gulf of Guinea. Out-of-range
// values also map to nil so a bad row can never poison distance math.
func PointFromColumns(lat, lon float64) *Point {
	if lat == 0 && lon == 0 {
		return nil
	}
	p := Point{Lat: lat, Lon: lon}
	if !p.Valid() {
		return nil
	}
	return &p
}
