package search

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/alexbeattie/chla-map-backend/internal/auth"
	"github.com/alexbeattie/chla-map-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := auth.SessionInfo{}

	r.Get("/status", StatusHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Use(middleware.AdminMiddleware(sessionFetcher))
		r.Post("/rebuild", RebuildHandler)
	})

	return r
}

type statusResponse struct {
	Ready      bool   `json:"ready"`
	Generation uint64 `json:"generation,omitempty"`
	BuiltAt    string `json:"built_at,omitempty"`
	Providers  int    `json:"providers,omitempty"`
	Centers    int    `json:"centers,omitempty"`
	Zips       int    `json:"zips,omitempty"`
}

func StatusHandler(w http.ResponseWriter, r *http.Request) {
	snap := Svc.Current()
	resp := statusResponse{}
	if snap != nil {
		resp.Ready = true
		resp.Generation = snap.Generation
		resp.BuiltAt = snap.BuiltAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.Providers = snap.Providers.Len()
		resp.Centers = snap.Centers.Len()
		resp.Zips = len(snap.Coverage.Zips())
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func RebuildHandler(w http.ResponseWriter, r *http.Request) {
	if err := Svc.Rebuild(r.Context()); err != nil {
		log.Printf("[search] Manual rebuild failed: %v", err)
		http.Error(w, "Rebuild failed", http.StatusInternalServerError)
		return
	}
	snap := Svc.Current()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"generation": snap.Generation,
		"providers":  snap.Providers.Len(),
		"centers":    snap.Centers.Len(),
	})
}
