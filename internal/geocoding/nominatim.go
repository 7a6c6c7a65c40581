package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alexbeattie/chla-map-backend/internal/geo"
	"golang.org/x/time/rate"
)

func init() {
	RegisterGeocoder(ProviderNominatim, func(cfg Config) (Geocoder, error) {
		return NewNominatim(cfg), nil
	})
}

// Nominatim is a client for the free OSM Nominatim geocoder. The public
// instance allows at most one request per second, enforced here with a rate
// limiter so concurrent callers queue instead of getting banned.
type Nominatim struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewNominatim creates a Nominatim client from config.
func NewNominatim(cfg Config) *Nominatim {
	endpoint := cfg.NominatimEndpoint
	if endpoint == "" {
		endpoint = DefaultNominatimEndpoint
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Nominatim{
		endpoint:  endpoint,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

func (n *Nominatim) Name() string { return "nominatim" }

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves free text to a point via Nominatim's search endpoint.
func (n *Nominatim) Geocode(ctx context.Context, query string) (geo.Point, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return geo.Point{}, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", "us")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return geo.Point{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return geo.Point{}, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Point{}, fmt.Errorf("nominatim returned HTTP %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return geo.Point{}, fmt.Errorf("decode response: %w", err)
	}
	if len(results) == 0 {
		return geo.Point{}, fmt.Errorf("%w: %q", ErrNoResults, query)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("parse lat %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("parse lon %q: %w", results[0].Lon, err)
	}

	return geo.NewPoint(lat, lon)
}
