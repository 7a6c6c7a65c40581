package search

import (
	"context"
	"errors"
	"testing"

	"github.com/alexbeattie/chla-map-backend/internal/geo"
)

func pt(lat, lon float64) *geo.Point {
	return &geo.Point{Lat: lat, Lon: lon}
}

// fakeSource implements EntitySource without a database.
type fakeSource struct {
	providers []geo.Entry
	centers   []geo.Center
	err       error
}

func (f *fakeSource) Providers(ctx context.Context) ([]geo.Entry, error) {
	return f.providers, f.err
}

func (f *fakeSource) Centers(ctx context.Context) ([]geo.Center, error) {
	return f.centers, f.err
}

// fakeGeocoder resolves a fixed set of strings and fails everything else.
type fakeGeocoder struct {
	known map[string]geo.Point
	calls int
}

func (f *fakeGeocoder) Name() string { return "fake" }

func (f *fakeGeocoder) Geocode(ctx context.Context, query string) (geo.Point, error) {
	f.calls++
	if p, ok := f.known[query]; ok {
		return p, nil
	}
	return geo.Point{}, errors.New("no result")
}

func testService(t *testing.T, backend IndexBackend) (*Service, *fakeGeocoder) {
	t.Helper()

	source := &fakeSource{
		providers: []geo.Entry{
			{ID: 1, Name: "Downtown Therapy", Point: pt(34.0522, -118.2437)},
			{ID: 2, Name: "Pasadena ABA", Point: pt(34.1478, -118.1445)},
			{ID: 3, Name: "Ungeocoded Clinic", Point: nil},
		},
		centers: []geo.Center{
			{
				Entry:              geo.Entry{ID: 10, Name: "Harbor", Point: pt(33.8358, -118.3406)},
				ZipCodes:           []string{"90501", "90502"},
				ServiceRadiusMiles: 15,
			},
			{
				Entry:              geo.Entry{ID: 11, Name: "Westside", Point: pt(34.0259, -118.4396)},
				ZipCodes:           []string{"90024"},
				ServiceRadiusMiles: 15,
			},
		},
	}
	geocoder := &fakeGeocoder{known: map[string]geo.Point{
		"90024": {Lat: 34.0633, Lon: -118.4455},
	}}

	svc := NewService(source, geocoder, Config{Backend: backend})
	if err := svc.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return svc, geocoder
}

func TestFindProvidersNearCoordinates(t *testing.T) {
	svc, _ := testService(t, BackendKDTree)

	results, err := svc.FindProvidersNear(context.Background(), Coordinates{Lat: 34.0522, Lon: -118.2437}, 5, 20)
	if err != nil {
		t.Fatalf("FindProvidersNear: %v", err)
	}
	if len(results) != 1 || results[0].Entry.ID != 1 {
		t.Errorf("expected only provider 1 within 5 miles, got %+v", results)
	}
}

func TestFindProvidersNearFreeText(t *testing.T) {
	svc, geocoder := testService(t, BackendKDTree)

	results, err := svc.FindProvidersNear(context.Background(), FreeText{Text: "90024"}, 25, 20)
	if err != nil {
		t.Fatalf("FindProvidersNear: %v", err)
	}
	if geocoder.calls != 1 {
		t.Errorf("expected 1 geocoder call, got %d", geocoder.calls)
	}
	if len(results) == 0 {
		t.Error("expected providers within 25 miles of Westwood")
	}
}

// TestGeocodingFailureIsNotEmptyResult pins down the distinction the API
// depends on: a failed geocode is an error, an empty search is a success.
func TestGeocodingFailureIsNotEmptyResult(t *testing.T) {
	svc, _ := testService(t, BackendKDTree)

	_, err := svc.FindProvidersNear(context.Background(), FreeText{Text: "invalid-garbage-text"}, 10, 20)
	if !errors.Is(err, ErrGeocodingFailed) {
		t.Errorf("expected ErrGeocodingFailed, got %v", err)
	}

	// Gulf of Alaska: nothing nearby, but a perfectly valid query.
	results, err := svc.FindProvidersNear(context.Background(), Coordinates{Lat: 55, Lon: -140}, 1, 20)
	if err != nil {
		t.Fatalf("expected success with empty results, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %+v", results)
	}
}

func TestFindProvidersNilQueryListsByID(t *testing.T) {
	svc, geocoder := testService(t, BackendKDTree)

	results, err := svc.FindProvidersNear(context.Background(), nil, 0, 0)
	if err != nil {
		t.Fatalf("FindProvidersNear: %v", err)
	}
	if geocoder.calls != 0 {
		t.Error("nil query must not hit the geocoder")
	}
	// Provider 3 has no point and must not appear.
	if len(results) != 2 || results[0].Entry.ID != 1 || results[1].Entry.ID != 2 {
		t.Errorf("expected locatable providers ordered by id, got %+v", results)
	}
}

func TestFindCentersNear(t *testing.T) {
	svc, _ := testService(t, BackendKDTree)

	results, err := svc.FindCentersNear(context.Background(), Coordinates{Lat: 34.0259, Lon: -118.4396}, 5, 10)
	if err != nil {
		t.Fatalf("FindCentersNear: %v", err)
	}
	if len(results) != 1 || results[0].Entry.Name != "Westside" {
		t.Errorf("expected only Westside within 5 miles, got %+v", results)
	}
}

func TestCenterForZip(t *testing.T) {
	svc, _ := testService(t, BackendKDTree)

	center, err := svc.CenterForZip(context.Background(), "90501")
	if err != nil {
		t.Fatalf("CenterForZip: %v", err)
	}
	if center == nil || center.Name != "Harbor" {
		t.Errorf("expected Harbor, got %+v", center)
	}

	center, err = svc.CenterForZip(context.Background(), "90210")
	if err != nil {
		t.Fatalf("CenterForZip: %v", err)
	}
	if center != nil {
		t.Errorf("expected nil for unowned ZIP, got %+v", center)
	}

	if _, err := svc.CenterForZip(context.Background(), "bad"); !errors.Is(err, geo.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestCoverageForZipFallback(t *testing.T) {
	svc, _ := testService(t, BackendKDTree)

	matches, err := svc.CoverageForZip(context.Background(), "90210", Coordinates{Lat: 34.0901, Lon: -118.4065})
	if err != nil {
		t.Fatalf("CoverageForZip: %v", err)
	}
	if len(matches) != 1 || matches[0].ExactMatch {
		t.Fatalf("expected one fallback match, got %+v", matches)
	}
	if matches[0].Center.Name != "Westside" {
		t.Errorf("expected nearest center Westside, got %s", matches[0].Center.Name)
	}
}

func TestQueriesBeforeFirstBuild(t *testing.T) {
	svc := NewService(&fakeSource{}, &fakeGeocoder{}, Config{})

	_, err := svc.FindProvidersNear(context.Background(), Coordinates{Lat: 34, Lon: -118}, 10, 20)
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
	_, err = svc.CenterForZip(context.Background(), "90501")
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
}

// TestBackendsAgree runs the same queries against both backends.
func TestBackendsAgree(t *testing.T) {
	kd, _ := testService(t, BackendKDTree)
	scan, _ := testService(t, BackendScan)

	q := Coordinates{Lat: 34.0522, Lon: -118.2437}
	kdResults, err := kd.FindProvidersNear(context.Background(), q, 50, 20)
	if err != nil {
		t.Fatalf("kdtree: %v", err)
	}
	scanResults, err := scan.FindProvidersNear(context.Background(), q, 50, 20)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(kdResults) != len(scanResults) {
		t.Fatalf("backends disagree: %d vs %d results", len(kdResults), len(scanResults))
	}
	for i := range kdResults {
		if kdResults[i].Entry.ID != scanResults[i].Entry.ID {
			t.Errorf("position %d: kdtree has %d, scan has %d", i, kdResults[i].Entry.ID, scanResults[i].Entry.ID)
		}
	}
}

func TestRebuildBumpsGeneration(t *testing.T) {
	svc, _ := testService(t, BackendKDTree)

	first := svc.Current().Generation
	if err := svc.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if second := svc.Current().Generation; second <= first {
		t.Errorf("expected generation to advance, got %d -> %d", first, second)
	}
}
