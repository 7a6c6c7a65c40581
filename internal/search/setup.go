package search

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/alexbeattie/chla-map-backend/internal/db"
	"github.com/alexbeattie/chla-map-backend/internal/geocoding"
)

// Svc is the process-wide search service, initialized in Init() and consumed
// by the providers and centers handlers.
var Svc *Service

// Init builds the search service from the environment: geocoder selection,
// index backend, and the gorm-backed entity source. The first snapshot build
// happens here so the API is queryable as soon as routes are mounted; a
// background ticker keeps refreshing it afterward.
func Init() {
	cfg := geocoding.LoadFromEnv()
	geocoder, err := geocoding.NewGeocoder(cfg)
	if err != nil {
		log.Printf("[search] WARNING: Failed to initialize %s geocoder: %v", cfg.Provider, err)
		log.Printf("[search] Address queries will be rejected; coordinate queries still work")
		geocoder = nil
	} else {
		log.Printf("[search] Initialized %s geocoder", geocoder.Name())
	}

	backend := BackendKDTree
	if strings.EqualFold(os.Getenv("SEARCH_INDEX_BACKEND"), string(BackendScan)) {
		backend = BackendScan
	}

	Svc = NewService(NewDBSource(db.DB), geocoder, Config{Backend: backend})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := Svc.Rebuild(ctx); err != nil {
		// Serve 503s until a later rebuild succeeds rather than crashing.
		log.Printf("[search] WARNING: initial snapshot build failed: %v", err)
	} else {
		snap := Svc.Current()
		log.Printf("[search] Snapshot ready: %d providers, %d centers, %d covered zips (%s backend)",
			snap.Providers.Len(), snap.Centers.Len(), len(snap.Coverage.Zips()), backend)
	}

	go refreshLoop()
}

// refreshLoop rebuilds on the snapshot TTL so a quiet API still picks up
// database edits. Query-path staleness checks remain the primary refresh
// mechanism; this just bounds how stale an idle process can get.
func refreshLoop() {
	ticker := time.NewTicker(DefaultSnapshotTTL)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := Svc.Rebuild(ctx); err != nil {
			log.Printf("[search] Scheduled rebuild failed: %v", err)
		}
		cancel()
	}
}
