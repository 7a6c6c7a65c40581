package search

import (
	"context"
	"fmt"

	"github.com/alexbeattie/chla-map-backend/internal/geo"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// DBSource reads providers and regional centers out of Postgres for snapshot
// builds. It takes the gorm handle explicitly; nothing in the search core
// touches process-wide state to find its database.
type DBSource struct {
	db *gorm.DB
}

func NewDBSource(db *gorm.DB) *DBSource {
	return &DBSource{db: db}
}

func (s *DBSource) Providers(ctx context.Context) ([]geo.Entry, error) {
	rows, err := s.db.WithContext(ctx).Raw(`
		SELECT id, name, latitude, longitude
		FROM chla.providers
		ORDER BY id
	`).Rows()
	if err != nil {
		return nil, fmt.Errorf("provider query failed: %w", err)
	}
	defer rows.Close()

	var entries []geo.Entry
	for rows.Next() {
		var (
			id       int64
			name     string
			lat, lon float64
		)
		if err := rows.Scan(&id, &name, &lat, &lon); err != nil {
			return nil, fmt.Errorf("scan provider row: %w", err)
		}
		entries = append(entries, geo.Entry{
			ID:    id,
			Name:  name,
			Point: geo.PointFromColumns(lat, lon),
		})
	}
	return entries, rows.Err()
}

func (s *DBSource) Centers(ctx context.Context) ([]geo.Center, error) {
	rows, err := s.db.WithContext(ctx).Raw(`
		SELECT id, name, latitude, longitude, zip_codes, service_radius_miles
		FROM chla.regional_centers
		ORDER BY id
	`).Rows()
	if err != nil {
		return nil, fmt.Errorf("regional center query failed: %w", err)
	}
	defer rows.Close()

	var centers []geo.Center
	for rows.Next() {
		var (
			id       int64
			name     string
			lat, lon float64
			zips     pq.StringArray
			radius   float64
		)
		if err := rows.Scan(&id, &name, &lat, &lon, &zips, &radius); err != nil {
			return nil, fmt.Errorf("scan regional center row: %w", err)
		}
		if radius <= 0 {
			radius = geo.DefaultServiceRadiusMiles
		}
		centers = append(centers, geo.Center{
			Entry: geo.Entry{
				ID:    id,
				Name:  name,
				Point: geo.PointFromColumns(lat, lon),
			},
			ZipCodes:           zips,
			ServiceRadiusMiles: radius,
		})
	}
	return centers, rows.Err()
}
