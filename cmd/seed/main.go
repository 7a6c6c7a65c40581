package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// CLI flags
var (
	centersPath = flag.String("centers", "", "Path to the regional centers YAML (required)")
	csvPath     = flag.String("csv", "", "Path to the providers CSV (optional)")
	dsn         = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	dryRun      = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
	confirm     = flag.Bool("confirm", false, "Required to perform destructive replace")
	advisoryKey = flag.Int64("advisory-lock", 0, "Optional Postgres advisory lock key (e.g., 424242). 0 = disabled")
	adminUser   = flag.String("admin-user", "", "Upsert an admin account with this username")
	adminPass   = flag.String("admin-pass", "", "Password for --admin-user")
)

// YAML contract for --centers:
//
//   centers:
//     - name: Harbor Regional Center
//       address: 21231 Hawthorne Blvd
//       city: Torrance
//       state: CA
//       zip: "90503"
//       phone: ...
//       website: ...
//       latitude: 33.83
//       longitude: -118.35
//       service_radius_miles: 15
//       zip_codes: ["90501", "90502", ...]

type CenterYAML struct {
	Name               string   `yaml:"name"`
	Address            string   `yaml:"address"`
	City               string   `yaml:"city"`
	State              string   `yaml:"state"`
	Zip                string   `yaml:"zip"`
	Phone              string   `yaml:"phone"`
	Website            string   `yaml:"website"`
	Latitude           float64  `yaml:"latitude"`
	Longitude          float64  `yaml:"longitude"`
	ServiceRadiusMiles float64  `yaml:"service_radius_miles"`
	ZipCodes           []string `yaml:"zip_codes"`
}

type centersFile struct {
	Centers []CenterYAML `yaml:"centers"`
}

// CSV contract for --csv:
// name,description,address,city,state,zip,phone,website,email,insurance,services,areas,latitude,longitude
// insurance/services/areas are semicolon-separated

type ProviderCSV struct {
	Name        string
	Description string
	Address     string
	City        string
	State       string
	Zip         string
	Phone       string
	Website     string
	Email       string
	Insurance   []string
	Services    []string
	Areas       []string
	Latitude    float64
	Longitude   float64
}

type Counts struct {
	Providers int64
	Centers   int64
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *centersPath == "" {
		fatalf("--centers is required")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}
	if (*adminUser == "") != (*adminPass == "") {
		fatalf("--admin-user and --admin-pass must be given together")
	}

	centers, err := loadCenters(*centersPath)
	if err != nil {
		fatalf("centers YAML error: %v", err)
	}
	if err := validateCenters(centers); err != nil {
		fatalf("centers validation failed: %v", err)
	}
	fmt.Printf("Loaded %d regional centers from %s\n", len(centers), *centersPath)

	var providers []ProviderCSV
	if *csvPath != "" {
		providers, err = loadProviders(*csvPath)
		if err != nil {
			fatalf("providers CSV error: %v", err)
		}
		fmt.Printf("Loaded %d providers from %s\n", len(providers), *csvPath)
	}

	if *dryRun {
		printPlan(centers, providers)
		fmt.Println("Dry run complete. No changes made.")
		return
	}

	if !*confirm {
		fatalf("Refusing to run without --confirm. Add --dry-run to preview.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op if already committed
	}()

	// Optional advisory lock to avoid concurrent runs
	if *advisoryKey != 0 {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, *advisoryKey); err != nil {
			fatalf("advisory lock: %v", err)
		}
	}

	before, err := countAll(ctx, tx)
	if err != nil {
		fatalf("pre-count: %v", err)
	}
	fmt.Printf("Before: providers=%d centers=%d\n", before.Providers, before.Centers)

	if err := wipeData(ctx, tx, *csvPath != ""); err != nil {
		fatalf("wipe data: %v", err)
	}

	if err := insertCenters(ctx, tx, centers); err != nil {
		fatalf("insert centers: %v", err)
	}
	if len(providers) > 0 {
		if err := insertProviders(ctx, tx, providers); err != nil {
			fatalf("insert providers: %v", err)
		}
	}
	if *adminUser != "" {
		if err := upsertAdmin(ctx, tx, *adminUser, *adminPass); err != nil {
			fatalf("upsert admin: %v", err)
		}
		fmt.Printf("Upserted admin account '%s'\n", *adminUser)
	}

	after, err := countAll(ctx, tx)
	if err != nil {
		fatalf("post-count: %v", err)
	}
	fmt.Printf("After:  providers=%d centers=%d\n", after.Providers, after.Centers)

	if after.Centers != int64(len(centers)) {
		fatalf("sanity check failed: centers=%d expected %d", after.Centers, len(centers))
	}

	if err := tx.Commit(); err != nil {
		fatalf("commit: %v", err)
	}
	fmt.Println("Seed complete ✅")
}

func loadCenters(path string) ([]CenterYAML, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f centersFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return f.Centers, nil
}

func validateCenters(centers []CenterYAML) error {
	if len(centers) == 0 {
		return fmt.Errorf("YAML has no centers")
	}
	seen := make(map[string]struct{}, len(centers))
	zipOwners := map[string][]string{}
	for i, c := range centers {
		if c.Name == "" {
			return fmt.Errorf("center %d: name is empty", i+1)
		}
		if _, dup := seen[strings.ToLower(c.Name)]; dup {
			return fmt.Errorf("center %d: duplicate name '%s'", i+1, c.Name)
		}
		seen[strings.ToLower(c.Name)] = struct{}{}
		for _, z := range c.ZipCodes {
			if len(z) != 5 {
				return fmt.Errorf("center '%s': malformed zip '%s'", c.Name, z)
			}
			zipOwners[z] = append(zipOwners[z], c.Name)
		}
	}
	// Multi-owner ZIPs are legal source data; report, don't reject.
	for z, owners := range zipOwners {
		if len(owners) > 1 {
			fmt.Printf("NOTE: zip %s claimed by %s\n", z, strings.Join(owners, " and "))
		}
	}
	return nil
}

func loadProviders(path string) ([]ProviderCSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	r := csv.NewReader(br)
	r.TrimLeadingSpace = true

	headers, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	required := []string{"name", "address", "city", "state", "zip", "latitude", "longitude"}
	for _, k := range required {
		if _, ok := idx[k]; !ok {
			return nil, fmt.Errorf("missing required column: %s", k)
		}
	}

	get := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	split := func(s string) []string {
		if s == "" {
			return nil
		}
		var out []string
		for _, p := range strings.Split(s, ";") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	var out []ProviderCSV
	line := 1
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read: %w", err)
		}
		line++

		row := ProviderCSV{
			Name:        get(rec, "name"),
			Description: get(rec, "description"),
			Address:     get(rec, "address"),
			City:        get(rec, "city"),
			State:       get(rec, "state"),
			Zip:         get(rec, "zip"),
			Phone:       get(rec, "phone"),
			Website:     get(rec, "website"),
			Email:       get(rec, "email"),
			Insurance:   split(get(rec, "insurance")),
			Services:    split(get(rec, "services")),
			Areas:       split(get(rec, "areas")),
		}
		if row.Name == "" {
			return nil, fmt.Errorf("row %d: name is empty", line)
		}
		// Rows yet to be geocoded carry empty or zero coordinates; both
		// load as the 0,0 sentinel and stay out of the spatial index.
		if s := get(rec, "latitude"); s != "" {
			if row.Latitude, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("row %d: bad latitude '%s'", line, s)
			}
		}
		if s := get(rec, "longitude"); s != "" {
			if row.Longitude, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("row %d: bad longitude '%s'", line, s)
			}
		}

		out = append(out, row)
	}
	return out, nil
}

func printPlan(centers []CenterYAML, providers []ProviderCSV) {
	zips := map[string]struct{}{}
	for _, c := range centers {
		for _, z := range c.ZipCodes {
			zips[z] = struct{}{}
		}
	}
	ungeocoded := 0
	for _, p := range providers {
		if p.Latitude == 0 && p.Longitude == 0 {
			ungeocoded++
		}
	}
	fmt.Println("Plan preview:")
	fmt.Printf("  Centers to insert: %d (%d distinct zips)\n", len(centers), len(zips))
	fmt.Printf("  Providers to insert: %d (%d ungeocoded)\n", len(providers), ungeocoded)
	fmt.Println("  Tables affected (destructive): chla.regional_centers, chla.providers")
}

func countAll(ctx context.Context, tx *sql.Tx) (Counts, error) {
	var c Counts
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM chla.providers`).Scan(&c.Providers); err != nil {
		return c, err
	}
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM chla.regional_centers`).Scan(&c.Centers); err != nil {
		return c, err
	}
	return c, nil
}

func wipeData(ctx context.Context, tx *sql.Tx, wipeProviders bool) error {
	tables := []string{"chla.regional_centers"}
	if wipeProviders {
		tables = append(tables, "chla.providers")
	}
	for _, t := range tables {
		q := fmt.Sprintf("DELETE FROM %s", t)
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("delete %s: %w", t, err)
		}
	}
	return nil
}

func insertCenters(ctx context.Context, tx *sql.Tx, centers []CenterYAML) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chla.regional_centers
			(name, address, city, state, zip, phone, website,
			 latitude, longitude, zip_codes, service_radius_miles, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range centers {
		radius := c.ServiceRadiusMiles
		if radius <= 0 {
			radius = 15
		}
		if _, err := stmt.ExecContext(ctx,
			c.Name, c.Address, c.City, c.State, c.Zip, c.Phone, c.Website,
			c.Latitude, c.Longitude, pq.StringArray(c.ZipCodes), radius,
		); err != nil {
			return fmt.Errorf("insert center '%s': %w", c.Name, err)
		}
	}
	return nil
}

func insertProviders(ctx context.Context, tx *sql.Tx, providers []ProviderCSV) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chla.providers
			(name, description, address, city, state, zip, phone, website, email,
			 insurance, services, areas, latitude, longitude, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now())`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range providers {
		if _, err := stmt.ExecContext(ctx,
			p.Name, p.Description, p.Address, p.City, p.State, p.Zip,
			p.Phone, p.Website, p.Email,
			pq.StringArray(p.Insurance), pq.StringArray(p.Services), pq.StringArray(p.Areas),
			p.Latitude, p.Longitude,
		); err != nil {
			return fmt.Errorf("insert provider '%s': %w", p.Name, err)
		}
	}
	return nil
}

func upsertAdmin(ctx context.Context, tx *sql.Tx, username, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	q := `INSERT INTO app_auth.users (user_id, username, hashed_password, role)
	      VALUES ($1, $2, $3, 'admin')
	      ON CONFLICT (username) DO UPDATE
	        SET hashed_password = EXCLUDED.hashed_password, role = 'admin'`
	if _, err := tx.ExecContext(ctx, q, uuid.NewString(), username, hashed); err != nil {
		return fmt.Errorf("upsert admin '%s': %w", username, err)
	}
	return nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
