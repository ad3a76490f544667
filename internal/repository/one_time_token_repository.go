package repository

import (
	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"gorm.io/gorm"
)

type OneTimeTokenRepository struct {
	db *gorm.DB
}

func NewOneTimeTokenRepository(db *gorm.DB) *OneTimeTokenRepository {
	return &OneTimeTokenRepository{
		db: db,
	}
}

func (r *OneTimeTokenRepository) Create(token *models.OneTimeToken) error {
	return r.db.Create(token).Error
}

// Consume tokeni tek adımda used=true yapar. Koşullu UPDATE olduğu için
// aynı token için yarışan ikinci istek 0 satır etkiler ve false alır.
func (r *OneTimeTokenRepository) Consume(token string, userID uint) (bool, error) {
	res := r.db.Model(&models.OneTimeToken{}).
		Where("token = ? AND user_id = ? AND used = ?", token, userID, false).
		Update("used", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
