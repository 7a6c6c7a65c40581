package centers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/alexbeattie/chla-map-backend/internal/db"
	"github.com/alexbeattie/chla-map-backend/internal/search"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func ListCentersHandler(w http.ResponseWriter, r *http.Request) {
	var centers []RegionalCenter
	if err := db.DB.Order("id").Find(&centers).Error; err != nil {
		log.Printf("[centers] List query failed: %v", err)
		http.Error(w, "Failed to fetch regional centers", http.StatusInternalServerError)
		return
	}
	writeJSON(w, centers)
}

func GetCenterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid center id", http.StatusBadRequest)
		return
	}

	var center RegionalCenter
	if err := db.DB.First(&center, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Regional center not found", http.StatusNotFound)
			return
		}
		log.Printf("[centers] Get query failed: %v", err)
		http.Error(w, "Failed to fetch regional center", http.StatusInternalServerError)
		return
	}

	writeJSON(w, center)
}

type nearResult struct {
	RegionalCenter
	DistanceMiles float64 `json:"distance_miles"`
}

// NearHandler answers GET /centers/near with the same query parameters the
// providers endpoint takes, over the wider center defaults.
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

	var radius float64
	if s := params.Get("radius"); s != "" {
		radius, err = strconv.ParseFloat(s, 64)
		if err != nil {
			http.Error(w, "Invalid radius", http.StatusBadRequest)
			return
		}
	}
	var limit int
	if s := params.Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
	}

	results, err := search.Svc.FindCentersNear(r.Context(), q, radius, limit)
	if err != nil {
		search.WriteQueryError(w, err)
		return
	}

	ids := make([]int64, len(results))
	for i, res := range results {
		ids[i] = res.ID
	}
	rows := []RegionalCenter{}
	if len(ids) > 0 {
		if err := db.DB.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			log.Printf("[centers] Hydrate query failed: %v", err)
			http.Error(w, "Failed to fetch regional centers", http.StatusInternalServerError)
			return
		}
	}
	byID := make(map[int64]RegionalCenter, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	out := make([]nearResult, 0, len(results))
	for _, res := range results {
		if row, ok := byID[res.ID]; ok {
			out = append(out, nearResult{RegionalCenter: row, DistanceMiles: res.DistanceMiles})
		}
	}
	writeJSON(w, out)
}

// ZipHandler answers GET /centers/zip/{zip}: the single center responsible
// for the ZIP, or a null body when no center claims it. ZIP+4 input is cut
// down to the 5-digit form here, before resolution.
func ZipHandler(w http.ResponseWriter, r *http.Request) {
	zip := normalizeZip(chi.URLParam(r, "zip"))

	center, err := search.Svc.CenterForZip(r.Context(), zip)
	if err != nil {
		search.WriteQueryError(w, err)
		return
	}
	if center == nil {
		writeJSON(w, map[string]any{"zip": zip, "center": nil})
		return
	}

	var row RegionalCenter
	if err := db.DB.First(&row, "id = ?", center.ID).Error; err != nil {
		log.Printf("[centers] Zip hydrate failed: %v", err)
		http.Error(w, "Failed to fetch regional center", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"zip": zip, "center": row})
}

type coverageMatch struct {
	CenterID      int64  `json:"center_id"`
	Name          string `json:"name"`
	ExactMatch    bool   `json:"is_exact_match"`
	OwnedZipCount int    `json:"owned_zip_count"`
}

// CoverageHandler is the diagnostic resolution path: every declared owner of
// the ZIP (multi-ownership is a data fact, not an error), or the nearest
// center flagged is_exact_match=false when a reference location is given.
func CoverageHandler(w http.ResponseWriter, r *http.Request) {
	zip := normalizeZip(chi.URLParam(r, "zip"))
	params := r.URL.Query()

	q, err := search.QueryFromParams(params.Get("lat"), params.Get("lon"), params.Get("address"))
	if err != nil {
		search.WriteQueryError(w, err)
		return
	}

	matches, err := search.Svc.CoverageForZip(r.Context(), zip, q)
	if err != nil {
		search.WriteQueryError(w, err)
		return
	}

	out := make([]coverageMatch, len(matches))
	for i, m := range matches {
		out[i] = coverageMatch{
			CenterID:      m.ID,
			Name:          m.Name,
			ExactMatch:    m.ExactMatch,
			OwnedZipCount: len(m.ZipCodes),
		}
	}
	writeJSON(w, map[string]any{
		"zip":     zip,
		"matches": out,
	})
}

// normalizeZip reduces ZIP+4 to the 5-digit form. Anything else passes
// through unchanged so the resolver can reject it.
func normalizeZip(zip string) string {
	if z := search.NormalizeAddress(zip).Zip; z != "" {
		return z
	}
	return zip
}
