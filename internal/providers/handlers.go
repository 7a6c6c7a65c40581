package providers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexbeattie/chla-map-backend/internal/db"
	"github.com/alexbeattie/chla-map-backend/internal/geo"
	"github.com/alexbeattie/chla-map-backend/internal/search"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// ListProvidersHandler returns providers, optionally filtered by a folded
// name query. Filtering happens in Go because the fold is accent-insensitive
// and the dataset is small (a few thousand rows).
func ListProvidersHandler(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, "Invalid offset", http.StatusBadRequest)
			return
		}
		offset = n
	}

	var all []Provider
	if err := db.DB.Order("id").Find(&all).Error; err != nil {
		log.Printf("[providers] List query failed: %v", err)
		http.Error(w, "Failed to fetch providers", http.StatusInternalServerError)
		return
	}

	q := search.FoldName(r.URL.Query().Get("q"))
	filtered := all[:0]
	if q == "" {
		filtered = all
	} else {
		for _, p := range all {
			if strings.Contains(search.FoldName(p.Name), q) {
				filtered = append(filtered, p)
			}
		}
	}

	if offset > len(filtered) {
		offset = len(filtered)
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	writeJSON(w, map[string]any{
		"total":     len(filtered),
		"providers": filtered[offset:end],
	})
}

func GetProviderHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid provider id", http.StatusBadRequest)
		return
	}

	var provider Provider
	if err := db.DB.First(&provider, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Provider not found", http.StatusNotFound)
			return
		}
		log.Printf("[providers] Get query failed: %v", err)
		http.Error(w, "Failed to fetch provider", http.StatusInternalServerError)
		return
	}

	writeJSON(w, provider)
}

// nearResult is a provider row plus its distance from the query point.
type nearResult struct {
	Provider
	DistanceMiles float64 `json:"distance_miles"`
}

// NearHandler answers GET /providers/near?lat=&lon= (or ?address= / ?zip=),
// with optional radius and limit overrides.
func NearHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	address := params.Get("address")
	if address == "" {
		address = params.Get("zip")
	}
	q, err := search.QueryFromParams(params.Get("lat"), params.Get("lon"), address)
	if err != nil {
		search.WriteQueryError(w, err)
		return
	}

	radius, limit, err := radiusLimit(params.Get("radius"), params.Get("limit"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := search.Svc.FindProvidersNear(r.Context(), q, radius, limit)
	if err != nil {
		search.WriteQueryError(w, err)
		return
	}

	out, err := hydrate(results)
	if err != nil {
		log.Printf("[providers] Hydrate query failed: %v", err)
		http.Error(w, "Failed to fetch providers", http.StatusInternalServerError)
		return
	}
	writeJSON(w, out)
}

// hydrate joins spatial results back to the full provider rows, preserving
// result order.
func hydrate(results []geo.Result) ([]nearResult, error) {
	ids := make([]int64, len(results))
	for i, res := range results {
		ids[i] = res.ID
	}

	rows := []Provider{}
	if len(ids) > 0 {
		if err := db.DB.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, err
		}
	}
	byID := make(map[int64]Provider, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	out := make([]nearResult, 0, len(results))
	for _, res := range results {
		row, ok := byID[res.ID]
		if !ok {
			// Index is ahead of the table (row deleted since the last
			// snapshot build); drop it rather than invent a record.
			continue
		}
		out = append(out, nearResult{Provider: row, DistanceMiles: res.DistanceMiles})
	}
	return out, nil
}

func radiusLimit(radiusStr, limitStr string) (float64, int, error) {
	var radius float64
	if radiusStr != "" {
		v, err := strconv.ParseFloat(radiusStr, 64)
		if err != nil {
			return 0, 0, errors.New("Invalid radius")
		}
		radius = v
	}
	var limit int
	if limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil {
			return 0, 0, errors.New("Invalid limit")
		}
		limit = v
	}
	return radius, limit, nil
}

func CreateProviderHandler(w http.ResponseWriter, r *http.Request) {
	var provider Provider
	if err := json.NewDecoder(r.Body).Decode(&provider); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}
	if provider.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}
	provider.ID = 0

	if err := db.DB.Create(&provider).Error; err != nil {
		log.Printf("[providers] Create failed: %v", err)
		http.Error(w, "Failed to create provider", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, provider)
}

func UpdateProviderHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid provider id", http.StatusBadRequest)
		return
	}

	var existing Provider
	if err := db.DB.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Provider not found", http.StatusNotFound)
			return
		}
		log.Printf("[providers] Update lookup failed: %v", err)
		http.Error(w, "Failed to fetch provider", http.StatusInternalServerError)
		return
	}

	var updates Provider
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}
	updates.ID = existing.ID

	// Save writes every field, so a manual lat/lon edit here becomes the
	// source of truth until the next geocode backfill touches the row.
	if err := db.DB.Save(&updates).Error; err != nil {
		log.Printf("[providers] Update failed: %v", err)
		http.Error(w, "Failed to update provider", http.StatusInternalServerError)
		return
	}

	writeJSON(w, updates)
}

func DeleteProviderHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid provider id", http.StatusBadRequest)
		return
	}

	res := db.DB.Delete(&Provider{}, "id = ?", id)
	if res.Error != nil {
		log.Printf("[providers] Delete failed: %v", res.Error)
		http.Error(w, "Failed to delete provider", http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		http.Error(w, "Provider not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
