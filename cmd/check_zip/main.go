package main

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Reports ZIP coverage anomalies in the regional center data: ZIPs claimed
// by more than one center, and (with an argument) who owns a specific ZIP.
//
//	go run ./cmd/check_zip           # full anomaly report
//	go run ./cmd/check_zip 90210     # owners of one ZIP
func main() {
	godotenv.Load(".env.local")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dbURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("DB connection error: %v", err)
	}

	type Row struct {
		Zip  string
		ID   int64
		Name string
	}

	var rows []Row
	query := `
		SELECT unnest(zip_codes) AS zip, id, name
		FROM chla.regional_centers
		ORDER BY zip, id
	`
	if err := db.Raw(query).Scan(&rows).Error; err != nil {
		log.Fatalf("Query error: %v", err)
	}

	owners := make(map[string][]Row)
	for _, r := range rows {
		owners[r.Zip] = append(owners[r.Zip], r)
	}

	if len(os.Args) > 1 {
		zip := os.Args[1]
		list := owners[zip]
		if len(list) == 0 {
			fmt.Printf("ZIP %s: no center claims it (nearest-center fallback applies)\n", zip)
			return
		}
		fmt.Printf("ZIP %s: %d owner(s)\n", zip, len(list))
		for _, o := range list {
			fmt.Printf("  - [%d] %s\n", o.ID, o.Name)
		}
		return
	}

	var multi []string
	for zip, list := range owners {
		if len(list) > 1 {
			multi = append(multi, zip)
		}
	}
	sort.Strings(multi)

	fmt.Printf("Total distinct zips claimed: %d\n", len(owners))
	fmt.Printf("Zips claimed by multiple centers: %d\n\n", len(multi))

	for _, zip := range multi {
		fmt.Printf("=== %s ===\n", zip)
		for _, o := range owners[zip] {
			fmt.Printf("  - [%d] %s\n", o.ID, o.Name)
		}
		fmt.Println()
	}
}
