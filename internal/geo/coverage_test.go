package geo

import (
	"errors"
	"testing"
)

func testCenters() []Center {
	return []Center{
		{
			Entry:              Entry{ID: 1, Name: "Harbor", Point: pt(33.8358, -118.3406)},
			ZipCodes:           []string{"90501", "90502"},
			ServiceRadiusMiles: 15,
		},
		{
			Entry:              Entry{ID: 2, Name: "Westside", Point: pt(34.0259, -118.4396)},
			ZipCodes:           []string{"90024"},
			ServiceRadiusMiles: 15,
		},
		{
			// No location on file; still resolvable by ZIP.
			Entry:              Entry{ID: 3, Name: "Lanterman", Point: nil},
			ZipCodes:           []string{"90004"},
			ServiceRadiusMiles: 15,
		},
	}
}

func buildTestCoverage() *Coverage {
	centers := testCenters()
	idx := NewScanIndex(nil)
	for _, c := range centers {
		idx.Insert(c.Entry)
	}
	return BuildCoverage(centers, idx)
}

func TestResolveExactMatch(t *testing.T) {
	cov := buildTestCoverage()

	owners, err := cov.Resolve("90501")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(owners) != 1 || owners[0].Name != "Harbor" {
		t.Errorf("expected [Harbor], got %+v", owners)
	}

	owners, err = cov.Resolve("90210")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(owners) != 0 {
		t.Errorf("expected no owners for 90210, got %+v", owners)
	}
}

// TestResolveNoPrefixMatching makes sure a ZIP sharing a prefix with a
// covered ZIP does not match.
func TestResolveNoPrefixMatching(t *testing.T) {
	cov := buildTestCoverage()

	owners, err := cov.Resolve("90500")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(owners) != 0 {
		t.Errorf("expected no owners for 90500, got %+v", owners)
	}
}

func TestResolveMalformedZip(t *testing.T) {
	cov := buildTestCoverage()

	for _, zip := range []string{"9050", "905011", "90-50", "abcde", "90501-1234", ""} {
		if _, err := cov.Resolve(zip); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for %q, got %v", zip, err)
		}
	}
}

// TestResolveMultipleOwners seeds a ZIP claimed by two centers, which the
// source data says shouldn't happen but historically does. Both owners come
// back, ordered by id.
func TestResolveMultipleOwners(t *testing.T) {
	centers := testCenters()
	centers = append(centers, Center{
		Entry:    Entry{ID: 4, Name: "Duplicate", Point: pt(33.9, -118.3)},
		ZipCodes: []string{"90501"},
	})
	cov := BuildCoverage(centers, nil)

	owners, err := cov.Resolve("90501")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(owners) != 2 {
		t.Fatalf("expected 2 owners, got %d", len(owners))
	}
	if owners[0].ID != 1 || owners[1].ID != 4 {
		t.Errorf("expected owners in id order [1 4], got [%d %d]", owners[0].ID, owners[1].ID)
	}
}

func TestResolveWithFallbackExact(t *testing.T) {
	cov := buildTestCoverage()

	matches, err := cov.ResolveWithFallback("90024", pt(34.0901, -118.4065))
	if err != nil {
		t.Fatalf("ResolveWithFallback: %v", err)
	}
	if len(matches) != 1 || !matches[0].ExactMatch {
		t.Fatalf("expected one exact match, got %+v", matches)
	}
	if matches[0].Center.Name != "Westside" {
		t.Errorf("expected Westside, got %s", matches[0].Center.Name)
	}
}

// TestResolveWithFallbackGeometric covers the coverage-gap case: 90210 has no
// declared owner, so the nearest center wins with ExactMatch=false.
func TestResolveWithFallbackGeometric(t *testing.T) {
	cov := buildTestCoverage()

	matches, err := cov.ResolveWithFallback("90210", pt(34.0901, -118.4065))
	if err != nil {
		t.Fatalf("ResolveWithFallback: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one fallback match, got %d", len(matches))
	}
	if matches[0].ExactMatch {
		t.Error("fallback match must have ExactMatch=false")
	}
	// Westside is geometrically closest to the Beverly Hills point.
	if matches[0].Center.Name != "Westside" {
		t.Errorf("expected nearest center Westside, got %s", matches[0].Center.Name)
	}
	// The full center record, ZIP list included, comes back on fallback.
	if len(matches[0].Center.ZipCodes) == 0 {
		t.Error("fallback match lost the center's ZIP list")
	}
}

func TestResolveWithFallbackNoPoint(t *testing.T) {
	cov := buildTestCoverage()

	matches, err := cov.ResolveWithFallback("90210", nil)
	if err != nil {
		t.Fatalf("ResolveWithFallback: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches without a reference point, got %+v", matches)
	}
}

func TestCoverageDiagnostics(t *testing.T) {
	cov := buildTestCoverage()

	zips := cov.Zips()
	if len(zips) != 4 {
		t.Errorf("expected 4 covered zips, got %d", len(zips))
	}
	if cov.Owners("90501") != 1 || cov.Owners("99999") != 0 {
		t.Error("owner counts wrong")
	}
}
