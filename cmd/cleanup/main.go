package main

import (
	"log"

	"github.com/edusuite/backend/internal/config"
	"github.com/edusuite/backend/internal/database"
	"github.com/edusuite/backend/internal/models"
	"github.com/edusuite/backend/internal/services"
)

// retentionKeep is how many activity log entries each school retains.
const retentionKeep = 100

// Maintenance pass run from cron: drop read notifications older than 90
// days, expired refresh tokens, and activity history beyond the
// per-school retention window.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	res := db.Exec(`DELETE FROM notifications WHERE is_read = true AND timestamp < NOW() - INTERVAL '90 days'`)
	if res.Error != nil {
		log.Printf("Error pruning notifications: %v", res.Error)
	} else {
		log.Printf("Pruned %d old notifications", res.RowsAffected)
	}

	res = db.Exec(`DELETE FROM refresh_tokens WHERE revoked = true OR expires_at < NOW()`)
	if res.Error != nil {
		log.Printf("Error pruning refresh tokens: %v", res.Error)
	} else {
		log.Printf("Pruned %d stale refresh tokens", res.RowsAffected)
	}

	activity := services.NewActivityService(db)
	var schools []models.School
	if err := db.Find(&schools).Error; err != nil {
		log.Fatal("Failed to list schools:", err)
	}
	var trimmed int64
	for _, school := range schools {
		n, err := activity.Trim(school.ID, retentionKeep)
		if err != nil {
			log.Printf("Error trimming activity for %s: %v", school.Name, err)
			continue
		}
		trimmed += n
	}
	log.Printf("Trimmed %d activity log entries across %d schools", trimmed, len(schools))

	log.Println("Cleanup completed")
}
