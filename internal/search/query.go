package search

import (
	"regexp"
	"strings"
)

// LocationQuery is the caller's reference location: explicit coordinates,
// free text for the geocoder, or nil for "no reference point".
type LocationQuery interface {
	isLocationQuery()
}

// Coordinates is an explicit lat/lon reference point.
type Coordinates struct {
	Lat float64
	Lon float64
}

func (Coordinates) isLocationQuery() {}

// FreeText is an address or ZIP string to be geocoded.
type FreeText struct {
	Text string
}

func (FreeText) isLocationQuery() {}

var (
	zip5Re    = regexp.MustCompile(`^\d{5}$`)
	zipPlus4  = regexp.MustCompile(`^(\d{5})-\d{4}$`)
	spaceRuns = regexp.MustCompile(`\s+`)
)

// NormalizedAddress is the one shape address input takes before it reaches a
// geocoder. The source system passed addresses around as either a JSON blob
// of parts or a bare string; both collapse to this at the HTTP boundary so
// nothing downstream ever branches on shape.
type NormalizedAddress struct {
	Street string
	City   string
	State  string
	Zip    string

	raw string
}

// NormalizeAddress builds a NormalizedAddress from free text. A bare ZIP
// (with or without the +4 suffix) is recognized and carried in the Zip field.
func NormalizeAddress(raw string) NormalizedAddress {
	text := strings.TrimSpace(spaceRuns.ReplaceAllString(raw, " "))

	addr := NormalizedAddress{raw: text}
	if zip5Re.MatchString(text) {
		addr.Zip = text
	} else if m := zipPlus4.FindStringSubmatch(text); m != nil {
		addr.Zip = m[1]
	}
	return addr
}

// NormalizeParts builds a NormalizedAddress from structured fields.
func NormalizeParts(street, city, state, zip string) NormalizedAddress {
	clean := func(s string) string {
		return strings.TrimSpace(spaceRuns.ReplaceAllString(s, " "))
	}
	zip = clean(zip)
	if m := zipPlus4.FindStringSubmatch(zip); m != nil {
		zip = m[1]
	}
	return NormalizedAddress{
		Street: clean(street),
		City:   clean(city),
		State:  clean(state),
		Zip:    zip,
	}
}

// IsEmpty reports whether there is nothing to geocode.
func (a NormalizedAddress) IsEmpty() bool {
	return a.String() == ""
}

// String renders the single query string handed to the geocoder.
func (a NormalizedAddress) String() string {
	parts := []string{}
	for _, p := range []string{a.Street, a.City, a.State, a.Zip} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return a.raw
	}
	return strings.Join(parts, ", ")
}
