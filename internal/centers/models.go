package centers

import (
	"time"

	"github.com/lib/pq"
)

// RegionalCenter is one of the LA-county regional centers. ZipCodes is the
// declared catchment; the same ZIP may legitimately appear on more than one
// center in the source data, and the API surfaces that instead of hiding it.
type RegionalCenter struct {
	ID                 int64          `json:"id" gorm:"primaryKey"`
	Name               string         `json:"name" gorm:"not null"`
	Address            string         `json:"address"`
	City               string         `json:"city"`
	State              string         `json:"state"`
	Zip                string         `json:"zip"`
	Phone              string         `json:"phone"`
	Website            string         `json:"website"`
	Latitude           float64        `json:"latitude"`
	Longitude          float64        `json:"longitude"`
	ZipCodes           pq.StringArray `json:"zip_codes" gorm:"type:text[]"`
	ServiceRadiusMiles float64        `json:"service_radius_miles" gorm:"default:15"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (RegionalCenter) TableName() string { return "chla.regional_centers" }
