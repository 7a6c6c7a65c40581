package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/alexbeattie/chla-map-backend/internal/db"
	"github.com/alexbeattie/chla-map-backend/internal/geocoding"
	"github.com/alexbeattie/chla-map-backend/internal/search"
	"github.com/joho/godotenv"
)

// Geocodes provider and regional center rows whose coordinates are still the
// 0,0 "never geocoded" sentinel, writing lat/lon back one row at a time so an
// interrupted run resumes where it stopped. Whatever this writes becomes the
// coordinates of record until the row is edited again.
var (
	table   = flag.String("table", "providers", "Which table to backfill: providers or centers")
	limit   = flag.Int("limit", 0, "Stop after this many rows (0 = all)")
	dryRun  = flag.Bool("dry-run", false, "Geocode and report; no DB writes")
	timeout = flag.Duration("timeout", 10*time.Minute, "Overall run timeout")
)

type row struct {
	ID      int64
	Name    string
	Address string
	City    string
	State   string
	Zip     string
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()

	var tableName string
	switch *table {
	case "providers":
		tableName = "chla.providers"
	case "centers":
		tableName = "chla.regional_centers"
	default:
		log.Fatalf("unknown --table %q (want providers or centers)", *table)
	}

	cfg := geocoding.LoadFromEnv()
	geocoder, err := geocoding.NewGeocoder(cfg)
	if err != nil {
		log.Fatalf("geocoder init: %v", err)
	}
	fmt.Printf("Geocoder: %s\n", geocoder.Name())
	if *dryRun {
		fmt.Println("Mode: DRY RUN (no database writes)")
	} else {
		fmt.Println("Mode: LIVE (will write to database)")
	}
	fmt.Println()

	db.Connect()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id, name, address, city, state, zip
		FROM %s
		WHERE latitude = 0 AND longitude = 0
		ORDER BY id`, tableName)

	var rows []row
	if err := db.DB.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		log.Fatalf("Query error: %v", err)
	}
	fmt.Printf("%d rows in %s need geocoding\n\n", len(rows), tableName)

	done := 0
	failed := 0
	for _, r := range rows {
		if *limit > 0 && done >= *limit {
			fmt.Printf("\nReached --limit %d, stopping\n", *limit)
			break
		}

		addr := search.NormalizeParts(r.Address, r.City, r.State, r.Zip)
		if addr.IsEmpty() {
			fmt.Printf("  SKIP [%d] %s: no address on record\n", r.ID, r.Name)
			continue
		}

		p, err := geocoder.Geocode(ctx, addr.String())
		if err != nil {
			failed++
			fmt.Printf("  FAIL [%d] %s: %v\n", r.ID, r.Name, trim(err.Error()))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if *dryRun {
			fmt.Printf("  OK   [%d] %s -> (%.5f, %.5f)\n", r.ID, r.Name, p.Lat, p.Lon)
			done++
			continue
		}

		update := fmt.Sprintf(`UPDATE %s SET latitude = ?, longitude = ?, updated_at = now() WHERE id = ?`, tableName)
		if err := db.DB.WithContext(ctx).Exec(update, p.Lat, p.Lon, r.ID).Error; err != nil {
			log.Fatalf("write back [%d]: %v", r.ID, err)
		}
		fmt.Printf("  OK   [%d] %s -> (%.5f, %.5f)\n", r.ID, r.Name, p.Lat, p.Lon)
		done++
	}

	fmt.Printf("\nGeocoded %d rows, %d failures, %d remaining\n", done, failed, len(rows)-done)
}

func trim(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
