package search

import (
	"errors"
	"testing"

	"github.com/alexbeattie/chla-map-backend/internal/geo"
)

func TestQueryFromParamsCoordinates(t *testing.T) {
	q, err := QueryFromParams("34.0522", "-118.2437", "")
	if err != nil {
		t.Fatalf("QueryFromParams: %v", err)
	}
	c, ok := q.(Coordinates)
	if !ok || c.Lat != 34.0522 || c.Lon != -118.2437 {
		t.Errorf("expected coordinates, got %#v", q)
	}
}

func TestQueryFromParamsCoordinatesWinOverAddress(t *testing.T) {
	q, err := QueryFromParams("34", "-118", "90024")
	if err != nil {
		t.Fatalf("QueryFromParams: %v", err)
	}
	if _, ok := q.(Coordinates); !ok {
		t.Errorf("expected coordinates to win, got %#v", q)
	}
}

func TestQueryFromParamsAddress(t *testing.T) {
	q, err := QueryFromParams("", "", "3250 Wilshire Blvd, Los Angeles")
	if err != nil {
		t.Fatalf("QueryFromParams: %v", err)
	}
	ft, ok := q.(FreeText)
	if !ok || ft.Text != "3250 Wilshire Blvd, Los Angeles" {
		t.Errorf("expected free text, got %#v", q)
	}
}

func TestQueryFromParamsEmpty(t *testing.T) {
	q, err := QueryFromParams("", "", "")
	if err != nil {
		t.Fatalf("QueryFromParams: %v", err)
	}
	if q != nil {
		t.Errorf("expected nil query, got %#v", q)
	}
}

func TestQueryFromParamsErrors(t *testing.T) {
	cases := [][3]string{
		{"34", "", ""},          // lon missing
		{"", "-118", ""},        // lat missing
		{"abc", "-118", ""},     // bad lat
		{"34", "not-a-num", ""}, // bad lon
	}
	for _, c := range cases {
		if _, err := QueryFromParams(c[0], c[1], c[2]); !errors.Is(err, geo.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for %v, got %v", c, err)
		}
	}
}
