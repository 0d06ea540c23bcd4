package database

import (
	"fmt"
	"log"

	"github.com/edusuite/backend/internal/config"
	"github.com/edusuite/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Server.Env == "development" {
		logLevel = logger.Info
	} else {
		logLevel = logger.Silent
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection successful")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	log.Println("Running migrations...")

	err := db.AutoMigrate(
		&models.School{},
		&models.User{},
		&models.Class{},
		&models.Student{},
		&models.FeeHead{},
		&models.FeeChallan{},
		&models.Attendance{},
		&models.Result{},
		&models.SchoolEvent{},
		&models.ActivityLog{},
		&models.Notification{},
		&models.RefreshToken{},
	)
	if err != nil {
		return err
	}

	// Partial unique index: one live challan per student per period.
	// Cancelled challans stay behind for audit without blocking reissue.
	db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_live_challan_period
		ON fee_challans(student_id, month, year) WHERE status <> 'Cancelled'`)
	db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id) WHERE is_read = false")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_activity_logs_school_time ON activity_logs(school_id, timestamp DESC)")

	return nil
}
