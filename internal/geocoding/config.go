package geocoding

import (
	"os"
	"strings"
)

// ProviderType identifies which geocoding backend to use.
type ProviderType string

const (
	ProviderNominatim ProviderType = "nominatim"
	ProviderMapbox    ProviderType = "mapbox"
)

// DefaultNominatimEndpoint is the public OSM Nominatim search endpoint.
const DefaultNominatimEndpoint = "https://nominatim.openstreetmap.org/search"

// DefaultMapboxEndpoint is the Mapbox forward-geocoding endpoint prefix; the
// URL-escaped query and ".json" are appended per request.
const DefaultMapboxEndpoint = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// DefaultUserAgent identifies this service to Nominatim, which rejects
// anonymous clients.
const DefaultUserAgent = "chla-provider-map/1.0"

// Config holds configuration for the geocoding provider.
type Config struct {
	// Provider type: "nominatim" or "mapbox"
	Provider ProviderType

	// Nominatim-specific config
	NominatimEndpoint string
	UserAgent         string

	// Mapbox-specific config
	MapboxToken    string
	MapboxEndpoint string
}

// LoadFromEnv loads geocoder configuration from environment variables.
//
// Environment variables:
//   - GEOCODER_PROVIDER: "nominatim" or "mapbox" (default: "nominatim")
//   - MAPBOX_TOKEN: access token (required if using mapbox)
//   - NOMINATIM_ENDPOINT: override for the Nominatim search URL
func LoadFromEnv() Config {
	providerStr := strings.ToLower(strings.TrimSpace(os.Getenv("GEOCODER_PROVIDER")))

	var provider ProviderType
	switch providerStr {
	case "mapbox":
		provider = ProviderMapbox
	default:
		provider = ProviderNominatim
	}

	endpoint := strings.TrimSpace(os.Getenv("NOMINATIM_ENDPOINT"))
	if endpoint == "" {
		endpoint = DefaultNominatimEndpoint
	}

	return Config{
		Provider:          provider,
		NominatimEndpoint: endpoint,
		UserAgent:         DefaultUserAgent,
		MapboxToken:       os.Getenv("MAPBOX_TOKEN"),
		MapboxEndpoint:    DefaultMapboxEndpoint,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Provider == ProviderMapbox && c.MapboxToken == "" {
		return ErrMissingToken
	}
	return nil
}
