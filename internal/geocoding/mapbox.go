package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/alexbeattie/chla-map-backend/internal/geo"
)

func init() {
	RegisterGeocoder(ProviderMapbox, func(cfg Config) (Geocoder, error) {
		return NewMapbox(cfg), nil
	})
}

// Mapbox is a client for the Mapbox forward-geocoding API, the paid backend.
// No client-side rate limit; the account quota is effectively unbounded for
// this service's traffic.
type Mapbox struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewMapbox creates a Mapbox client from config.
func NewMapbox(cfg Config) *Mapbox {
	endpoint := cfg.MapboxEndpoint
	if endpoint == "" {
		endpoint = DefaultMapboxEndpoint
	}
	return &Mapbox{
		endpoint: endpoint,
		token:    cfg.MapboxToken,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (m *Mapbox) Name() string { return "mapbox" }

type mapboxResponse struct {
	Features []mapboxFeature `json:"features"`
}

type mapboxFeature struct {
	// Center is [longitude, latitude].
	Center    [2]float64 `json:"center"`
	PlaceName string     `json:"place_name"`
}

// Geocode resolves free text to a point via the Mapbox places endpoint.
func (m *Mapbox) Geocode(ctx context.Context, query string) (geo.Point, error) {
	params := url.Values{}
	params.Set("access_token", m.token)
	params.Set("limit", "1")
	params.Set("country", "us")

	fullURL := fmt.Sprintf("%s/%s.json?%s", m.endpoint, url.PathEscape(query), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return geo.Point{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return geo.Point{}, fmt.Errorf("mapbox request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Point{}, fmt.Errorf("mapbox returned HTTP %d", resp.StatusCode)
	}

	var body mapboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return geo.Point{}, fmt.Errorf("decode response: %w", err)
	}
	if len(body.Features) == 0 {
		return geo.Point{}, fmt.Errorf("%w: %q", ErrNoResults, query)
	}

	center := body.Features[0].Center
	return geo.NewPoint(center[1], center[0])
}
