package repository

import (
	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"gorm.io/gorm"
)

type OperationLogRepository struct {
	db *gorm.DB
}

func NewOperationLogRepository(db *gorm.DB) *OperationLogRepository {
	return &OperationLogRepository{
		db: db,
	}
}

// Append tek yönlü yazma; log kayıtları hiç güncellenmez.
func (r *OperationLogRepository) Append(entry *models.OperationLog) error {
	return r.db.Create(entry).Error
}

func (r *OperationLogRepository) ListByUser(userID uint) ([]models.OperationLog, error) {
	var entries []models.OperationLog
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}
