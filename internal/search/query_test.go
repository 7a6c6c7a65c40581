package search

import "testing"

func TestNormalizeAddressFreeText(t *testing.T) {
	addr := NormalizeAddress("  4650   Sunset Blvd,  Los Angeles  ")
	if addr.String() != "4650 Sunset Blvd, Los Angeles" {
		t.Errorf("unexpected normalization: %q", addr.String())
	}
	if addr.Zip != "" {
		t.Errorf("free text should not set Zip, got %q", addr.Zip)
	}
}

func TestNormalizeAddressBareZip(t *testing.T) {
	addr := NormalizeAddress("90024")
	if addr.Zip != "90024" {
		t.Errorf("expected Zip 90024, got %q", addr.Zip)
	}

	addr = NormalizeAddress("90024-1234")
	if addr.Zip != "90024" {
		t.Errorf("expected ZIP+4 trimmed to 90024, got %q", addr.Zip)
	}
}

func TestNormalizeParts(t *testing.T) {
	addr := NormalizeParts("4650 Sunset Blvd", "Los Angeles", "CA", "90027-6062")
	want := "4650 Sunset Blvd, Los Angeles, CA, 90027"
	if addr.String() != want {
		t.Errorf("expected %q, got %q", want, addr.String())
	}
}

func TestNormalizedAddressIsEmpty(t *testing.T) {
	if !NormalizeAddress("   ").IsEmpty() {
		t.Error("whitespace-only input should be empty")
	}
	if NormalizeAddress("90024").IsEmpty() {
		t.Error("a bare ZIP is not empty")
	}
}

func TestFoldName(t *testing.T) {
	cases := map[string]string{
		"Niños y Familias":   "ninos y familias",
		"  CHLA  ":           "chla",
		"Thérapie Provider":  "therapie provider",
		"Plain Name Therapy": "plain name therapy",
	}
	for in, want := range cases {
		if got := FoldName(in); got != want {
			t.Errorf("FoldName(%q) = %q, want %q", in, got, want)
		}
	}
}
