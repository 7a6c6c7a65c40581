package geo

import (
	"fmt"
	"sort"
)

// Entry is the unit stored in a spatial index: an entity id, a display name,
// and an optional location. Entries with a nil Point are accepted by Insert
// but never indexed, so they can't show up in proximity results.
type Entry struct {
	ID    int64
	Name  string
	Point *Point
}

// Result pairs an indexed entry with its distance from the query point.
type Result struct {
	Entry
	DistanceMiles float64
}

// Index answers radius and nearest-K queries over a fixed set of entries.
// Implementations are read-only after construction and safe for concurrent
// reads; refreshing the data means building a new index and swapping it in.
//
// Both implementations must produce identical orderings: distance ascending,
// entry id ascending on ties.
type Index interface {
	QueryRadius(p Point, radiusMiles float64, limit int) ([]Result, error)
	QueryNearest(p Point, limit int) ([]Result, error)
	Len() int
}

// ScanIndex is the brute-force fallback backend: a flat haversine scan over
// every entry. It is the reference implementation the kd-tree is tested
// against, and the backend of choice when the entry count is small.
type ScanIndex struct {
	entries []Entry
}

// NewScanIndex builds a scan index, skipping entries without a location.
func NewScanIndex(entries []Entry) *ScanIndex {
	s := &ScanIndex{}
	for _, e := range entries {
		s.Insert(e)
	}
	return s
}

// Insert adds an entry. Entries with a nil point are silently skipped.
func (s *ScanIndex) Insert(e Entry) {
	if e.Point == nil {
		return
	}
	s.entries = append(s.entries, e)
}

func (s *ScanIndex) Len() int { return len(s.entries) }

func (s *ScanIndex) QueryRadius(p Point, radiusMiles float64, limit int) ([]Result, error) {
	if err := validateQuery(p, limit); err != nil {
		return nil, err
	}
	if radiusMiles <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidArgument, radiusMiles)
	}

	results := []Result{}
	for _, e := range s.entries {
		d := Haversine(p, *e.Point)
		if d <= radiusMiles {
			results = append(results, Result{Entry: e, DistanceMiles: d})
		}
	}
	sortResults(results)
	return truncate(results, limit), nil
}

func (s *ScanIndex) QueryNearest(p Point, limit int) ([]Result, error) {
	if err := validateQuery(p, limit); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(s.entries))
	for _, e := range s.entries {
		results = append(results, Result{Entry: e, DistanceMiles: Haversine(p, *e.Point)})
	}
	sortResults(results)
	return truncate(results, limit), nil
}

func validateQuery(p Point, limit int) error {
	if !p.Valid() {
		return fmt.Errorf("%w: coordinates out of range (%v, %v)", ErrInvalidArgument, p.Lat, p.Lon)
	}
	if limit < 1 {
		return fmt.Errorf("%w: limit must be >= 1, got %d", ErrInvalidArgument, limit)
	}
	return nil
}

// sortResults orders by distance ascending, breaking ties by id ascending so
// repeated queries over the same snapshot are reproducible.
func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].DistanceMiles != results[j].DistanceMiles {
			return results[i].DistanceMiles < results[j].DistanceMiles
		}
		return results[i].Entry.ID < results[j].Entry.ID
	})
}

func truncate(results []Result, limit int) []Result {
	if len(results) > limit {
		return results[:limit]
	}
	return results
}
