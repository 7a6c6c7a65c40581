package geo

import (
	"fmt"
	"regexp"
	"sort"
)

// DefaultServiceRadiusMiles is the catchment radius assumed for a regional
// center that doesn't declare one.
const DefaultServiceRadiusMiles = 15.0

var zip5 = regexp.MustCompile(`^\d{5}$`)

// Center is a regional center as the coverage resolver sees it: a locatable
// entry plus the explicit list of ZIP codes it serves.
type Center struct {
	Entry
	ZipCodes           []string
	ServiceRadiusMiles float64
}

// Match is one resolved owner for a ZIP. ExactMatch is false only when the
// owner came from the geometric nearest-center fallback rather than the
// center's declared ZIP list.
type Match struct {
	Center
	ExactMatch bool
}

// Coverage maps ZIP codes to the regional centers whose declared ZIP lists
// contain them. It records every owner: the source data is supposed to assign
// each LA-county ZIP to exactly one center, but historically hasn't, and that
// anomaly is surfaced as data for the caller to adjudicate, not hidden here.
//
// Coverage is read-only once built; rebuild and swap to refresh.
type Coverage struct {
	owners   map[string][]Center
	byID     map[int64]Center
	fallback Index
}

// BuildCoverage indexes every center's ZIP list. Centers with a nil point are
// still resolvable by ZIP; they just can't be found geometrically. The
// fallback index may be nil, in which case ResolveWithFallback never degrades
// past an exact lookup.
func BuildCoverage(centers []Center, fallback Index) *Coverage {
	c := &Coverage{
		owners:   make(map[string][]Center),
		byID:     make(map[int64]Center),
		fallback: fallback,
	}
	for _, center := range centers {
		c.byID[center.ID] = center
		for _, zip := range center.ZipCodes {
			c.owners[zip] = append(c.owners[zip], center)
		}
	}
	// Owners in id order so multi-owner ZIPs resolve deterministically.
	for zip := range c.owners {
		list := c.owners[zip]
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	return c
}

// Resolve returns every center whose declared ZIP list contains the given
// 5-digit ZIP, in center-id order. An empty result is a legitimate outcome
// (a coverage gap in the source data), not an error. Matching is exact:
// no prefix, substring, or ZIP+4 handling here.
func (c *Coverage) Resolve(zip string) ([]Center, error) {
	if !zip5.MatchString(zip) {
		return nil, fmt.Errorf("%w: zip must be 5 digits, got %q", ErrInvalidArgument, zip)
	}
	owners := c.owners[zip]
	out := make([]Center, len(owners))
	copy(out, owners)
	return out, nil
}

// ResolveWithFallback resolves a ZIP exactly, and when no center claims it
// and a reference point is available, falls back to the geometrically nearest
// center as a best-effort substitute. Fallback matches carry
// ExactMatch=false so callers can tell the two apart.
func (c *Coverage) ResolveWithFallback(zip string, p *Point) ([]Match, error) {
	owners, err := c.Resolve(zip)
	if err != nil {
		return nil, err
	}

	if len(owners) > 0 {
		matches := make([]Match, len(owners))
		for i, center := range owners {
			matches[i] = Match{Center: center, ExactMatch: true}
		}
		return matches, nil
	}

	if p == nil || c.fallback == nil || c.fallback.Len() == 0 {
		return []Match{}, nil
	}

	results, err := c.fallback.QueryNearest(*p, 1)
	if err != nil {
		return nil, err
	}
	matches := make([]Match, 0, len(results))
	for _, r := range results {
		center, ok := c.byID[r.Entry.ID]
		if !ok {
			center = Center{Entry: r.Entry, ServiceRadiusMiles: DefaultServiceRadiusMiles}
		}
		matches = append(matches, Match{Center: center, ExactMatch: false})
	}
	return matches, nil
}

// Zips returns every ZIP present in the coverage map. Diagnostic use.
func (c *Coverage) Zips() []string {
	zips := make([]string, 0, len(c.owners))
	for zip := range c.owners {
		zips = append(zips, zip)
	}
	sort.Strings(zips)
	return zips
}

// Owners returns the owner count for a ZIP without validation. Diagnostic use.
func (c *Coverage) Owners(zip string) int {
	return len(c.owners[zip])
}
