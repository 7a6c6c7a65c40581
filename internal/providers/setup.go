package providers

import (
	"log"

	"github.com/alexbeattie/chla-map-backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "chla"); err != nil {
		log.Fatal("Failed to ensure schema chla: ", err)
	}

	if err := db.DB.AutoMigrate(&Provider{}); err != nil {
		log.Fatal("Failed to auto-migrate providers table: ", err)
	}
}
