package providers

import (
	"time"

	"github.com/lib/pq"
)

// Provider is a service organization families can search for by location.
// Latitude/longitude of 0,0 means the row was never geocoded; the search
// layer treats it as "no point", never as a real location.
type Provider struct {
	ID          int64          `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description"`
	Address     string         `json:"address"`
	City        string         `json:"city"`
	State       string         `json:"state"`
	Zip         string         `json:"zip"`
	Phone       string         `json:"phone"`
	Website     string         `json:"website"`
	Email       string         `json:"email"`
	Insurance   pq.StringArray `json:"insurance" gorm:"type:text[]"`
	Services    pq.StringArray `json:"services" gorm:"type:text[]"`
	Areas       pq.StringArray `json:"areas" gorm:"type:text[]"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`

	CenterBasedServices bool `json:"center_based_services"`
	AcceptsInsurance    bool `json:"accepts_insurance"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (Provider) TableName() string { return "chla.providers" }
