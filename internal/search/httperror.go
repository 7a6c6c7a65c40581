package search

import (
	"errors"
	"net/http"

	"github.com/alexbeattie/chla-map-backend/internal/geo"
)

// WriteQueryError maps search errors onto HTTP status codes for the
// providers and centers handlers. Unknown errors become a 500.
func WriteQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, geo.ErrInvalidArgument):
		http.Error(w, "Invalid query: "+err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrGeocodingFailed):
		http.Error(w, "Could not resolve location", http.StatusUnprocessableEntity)
	case errors.Is(err, ErrIndexUnavailable):
		w.Header().Set("Retry-After", "5")
		http.Error(w, "Search index warming up", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Search failed", http.StatusInternalServerError)
	}
}
