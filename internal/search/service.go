package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexbeattie/chla-map-backend/internal/geo"
	"github.com/alexbeattie/chla-map-backend/internal/geocoding"
)

// Common errors
var (
	// ErrGeocodingFailed means an address could not be resolved to
	// coordinates. Distinct from an empty (but successful) search.
	ErrGeocodingFailed = errors.New("could not resolve location from address")

	// ErrIndexUnavailable means no snapshot has been built yet. Callers
	// should treat it as retryable, not as bad input.
	ErrIndexUnavailable = errors.New("search index not available")
)

// Defaults mirror the query parameters the API layer exposes.
const (
	DefaultProviderRadiusMiles = 10.0
	DefaultProviderLimit       = 20
	DefaultCenterRadiusMiles   = 25.0
	DefaultCenterLimit         = 10

	// DefaultSnapshotTTL matches the source system's 1-hour cache.
	DefaultSnapshotTTL = time.Hour
)

// IndexBackend selects the spatial index implementation.
type IndexBackend string

const (
	BackendKDTree IndexBackend = "kdtree"
	BackendScan   IndexBackend = "scan"
)

// EntitySource feeds snapshot builds with a read-only view of the entities.
type EntitySource interface {
	Providers(ctx context.Context) ([]geo.Entry, error)
	Centers(ctx context.Context) ([]geo.Center, error)
}

// Snapshot is one immutable generation of the search state: both spatial
// indexes plus the ZIP coverage map, built together from a single read of the
// entity source. Queries run against whichever snapshot was current when they
// started; rebuilds publish a whole new snapshot atomically.
type Snapshot struct {
	Providers  geo.Index
	Centers    geo.Index
	Coverage   *geo.Coverage
	Generation uint64
	BuiltAt    time.Time

	// providerList and centerList hold every locatable entity ordered by
	// id, for the "no reference point" listing path.
	providerList []geo.Entry
	centerList   []geo.Entry
}

// Config holds service construction options.
type Config struct {
	Backend IndexBackend
	TTL     time.Duration
}

// Service is the single entry point for proximity search. It is stateless
// per call; all state lives in the current snapshot.
type Service struct {
	source   EntitySource
	geocoder geocoding.Geocoder
	backend  IndexBackend
	ttl      time.Duration

	snapshot   atomic.Pointer[Snapshot]
	generation atomic.Uint64
	rebuildMu  sync.Mutex
}

// NewService creates a Service. No snapshot exists until Rebuild is called;
// queries before that fail with ErrIndexUnavailable.
func NewService(source EntitySource, geocoder geocoding.Geocoder, cfg Config) *Service {
	backend := cfg.Backend
	if backend == "" {
		backend = BackendKDTree
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &Service{
		source:   source,
		geocoder: geocoder,
		backend:  backend,
		ttl:      ttl,
	}
}

// Rebuild reads the entity source and publishes a new snapshot. Concurrent
// rebuilds are serialized; readers keep using the old snapshot until the new
// one is swapped in.
func (s *Service) Rebuild(ctx context.Context) error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	providers, err := s.source.Providers(ctx)
	if err != nil {
		return fmt.Errorf("load providers: %w", err)
	}
	centers, err := s.source.Centers(ctx)
	if err != nil {
		return fmt.Errorf("load centers: %w", err)
	}

	centerEntries := make([]geo.Entry, len(centers))
	for i, c := range centers {
		centerEntries[i] = c.Entry
	}

	centerIndex := s.newIndex(centerEntries)

	snap := &Snapshot{
		Providers:    s.newIndex(providers),
		Centers:      centerIndex,
		Coverage:     geo.BuildCoverage(centers, centerIndex),
		Generation:   s.generation.Add(1),
		BuiltAt:      time.Now(),
		providerList: locatableByID(providers),
		centerList:   locatableByID(centerEntries),
	}
	s.snapshot.Store(snap)
	return nil
}

func (s *Service) newIndex(entries []geo.Entry) geo.Index {
	if s.backend == BackendScan {
		return geo.NewScanIndex(entries)
	}
	return geo.NewKDTree(entries)
}

// current returns a usable snapshot, lazily rebuilding past the TTL. A failed
// refresh falls back to the stale snapshot rather than failing the query.
func (s *Service) current(ctx context.Context) (*Snapshot, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrIndexUnavailable
	}
	if time.Since(snap.BuiltAt) > s.ttl {
		if err := s.Rebuild(ctx); err == nil {
			snap = s.snapshot.Load()
		}
	}
	return snap, nil
}

// Current returns the live snapshot for diagnostic handlers, or nil when no
// build has happened yet.
func (s *Service) Current() *Snapshot {
	return s.snapshot.Load()
}

// FindProvidersNear returns providers ordered by distance from the query
// location. With a nil query there is no meaningful "near", so it returns up
// to limit locatable providers ordered by id.
func (s *Service) FindProvidersNear(ctx context.Context, q LocationQuery, radiusMiles float64, limit int) ([]geo.Result, error) {
	if radiusMiles == 0 {
		radiusMiles = DefaultProviderRadiusMiles
	}
	if limit == 0 {
		limit = DefaultProviderLimit
	}

	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	if q == nil {
		return listByID(snap.providerList, limit)
	}

	p, err := s.resolvePoint(ctx, q)
	if err != nil {
		return nil, err
	}
	return snap.Providers.QueryRadius(p, radiusMiles, limit)
}

// FindCentersNear is FindProvidersNear over regional centers.
func (s *Service) FindCentersNear(ctx context.Context, q LocationQuery, radiusMiles float64, limit int) ([]geo.Result, error) {
	if radiusMiles == 0 {
		radiusMiles = DefaultCenterRadiusMiles
	}
	if limit == 0 {
		limit = DefaultCenterLimit
	}

	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	if q == nil {
		return listByID(snap.centerList, limit)
	}

	p, err := s.resolvePoint(ctx, q)
	if err != nil {
		return nil, err
	}
	return snap.Centers.QueryRadius(p, radiusMiles, limit)
}

// CenterForZip returns the regional center that claims the ZIP, or nil when
// none does. When the source data assigns a ZIP to more than one center the
// lowest-id owner wins; the full owner list is available via CoverageForZip.
func (s *Service) CenterForZip(ctx context.Context, zip string) (*geo.Center, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	owners, err := snap.Coverage.Resolve(zip)
	if err != nil {
		return nil, err
	}
	if len(owners) == 0 {
		return nil, nil
	}
	return &owners[0], nil
}

// CoverageForZip is the diagnostic resolution path: every declared owner, or
// the geometric nearest-center fallback (flagged ExactMatch=false) when the
// ZIP has no owner and a reference location is available.
func (s *Service) CoverageForZip(ctx context.Context, zip string, q LocationQuery) ([]geo.Match, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	var p *geo.Point
	if q != nil {
		resolved, err := s.resolvePoint(ctx, q)
		if err != nil {
			return nil, err
		}
		p = &resolved
	}
	return snap.Coverage.ResolveWithFallback(zip, p)
}

// locatableByID filters out entries without a point and orders by id.
func locatableByID(entries []geo.Entry) []geo.Entry {
	list := make([]geo.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Point != nil {
			list = append(list, e)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func listByID(list []geo.Entry, limit int) ([]geo.Result, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be >= 1, got %d", geo.ErrInvalidArgument, limit)
	}
	n := limit
	if n > len(list) {
		n = len(list)
	}
	results := make([]geo.Result, n)
	for i := 0; i < n; i++ {
		results[i] = geo.Result{Entry: list[i]}
	}
	return results, nil
}

// resolvePoint normalizes a LocationQuery to a concrete point. Coordinates
// are validated; free text goes through the geocoder, and any geocoder
// failure (no results or transport error alike) surfaces as
// ErrGeocodingFailed so callers can tell it apart from an empty search.
func (s *Service) resolvePoint(ctx context.Context, q LocationQuery) (geo.Point, error) {
	switch v := q.(type) {
	case Coordinates:
		return geo.NewPoint(v.Lat, v.Lon)
	case FreeText:
		addr := NormalizeAddress(v.Text)
		if addr.IsEmpty() {
			return geo.Point{}, fmt.Errorf("%w: empty address", geo.ErrInvalidArgument)
		}
		if s.geocoder == nil {
			return geo.Point{}, fmt.Errorf("%w: no geocoder configured", ErrGeocodingFailed)
		}
		p, err := s.geocoder.Geocode(ctx, addr.String())
		if err != nil {
			return geo.Point{}, fmt.Errorf("%w: %v", ErrGeocodingFailed, err)
		}
		return p, nil
	default:
		return geo.Point{}, fmt.Errorf("%w: unsupported location query %T", geo.ErrInvalidArgument, q)
	}
}
