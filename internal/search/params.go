package search

import (
	"fmt"
	"strconv"

	"github.com/alexbeattie/chla-map-backend/internal/geo"
)

// QueryFromParams turns the common HTTP query parameters into a
// LocationQuery. Coordinates win when both lat and lon are present; otherwise
// the address (or bare ZIP) is geocoded. All empty means nil, i.e. no
// reference point.
func QueryFromParams(latStr, lonStr, address string) (LocationQuery, error) {
	if latStr != "" || lonStr != "" {
		if latStr == "" || lonStr == "" {
			return nil, fmt.Errorf("%w: lat and lon must be given together", geo.ErrInvalidArgument)
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad lat %q", geo.ErrInvalidArgument, latStr)
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad lon %q", geo.ErrInvalidArgument, lonStr)
		}
		return Coordinates{Lat: lat, Lon: lon}, nil
	}
	if address != "" {
		return FreeText{Text: address}, nil
	}
	return nil, nil
}
