package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edusuite/backend/internal/models"
)

type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// List returns a school's activity history, newest first. The cached
// feed holds only the most recent entries; this is the paged view
// behind it.
func (s *ActivityService) List(schoolID uuid.UUID, limit, offset int) ([]models.ActivityLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var logs []models.ActivityLog
	err := s.db.Where("school_id = ?", schoolID).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	return logs, err
}

// Trim deletes a school's log entries beyond the keep most recent.
func (s *ActivityService) Trim(schoolID uuid.UUID, keep int) (int64, error) {
	res := s.db.Exec(`DELETE FROM activity_logs WHERE id IN (
		SELECT id FROM activity_logs WHERE school_id = ?
		ORDER BY timestamp DESC OFFSET ?)`, schoolID, keep)
	return res.RowsAffected, res.Error
}
