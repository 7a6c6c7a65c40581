package geocoding

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexbeattie/chla-map-backend/internal/geo"
)

// Common errors
var (
	ErrNoResults       = errors.New("geocoder returned no results")
	ErrMissingToken    = errors.New("MAPBOX_TOKEN environment variable is required for mapbox geocoder")
	ErrUnknownProvider = errors.New("unknown geocoder provider")
)

// Geocoder turns a single normalized address/ZIP string into a coordinate.
// Implementations do not retry internally; transient failures surface to the
// caller, which decides whether to retry or fail the request.
type Geocoder interface {
	// Name returns the provider name for logging purposes.
	Name() string

	// Geocode resolves free text to a point. Returns ErrNoResults when the
	// provider answered but found nothing.
	Geocode(ctx context.Context, query string) (geo.Point, error)
}

// geocoderRegistry holds registered geocoder constructors so new providers
// can be added without touching this file.
var geocoderRegistry = make(map[ProviderType]func(Config) (Geocoder, error))

// RegisterGeocoder registers a constructor for a provider type. Called from
// init() in each provider file.
func RegisterGeocoder(providerType ProviderType, constructor func(Config) (Geocoder, error)) {
	geocoderRegistry[providerType] = constructor
}

// NewGeocoder creates a Geocoder from configuration.
func NewGeocoder(cfg Config) (Geocoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	constructor, ok := geocoderRegistry[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
	return constructor(cfg)
}
