package repository

import (
	"errors"

	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"gorm.io/gorm"
)

type PurchasedTokenRepository struct {
	db *gorm.DB
}

func NewPurchasedTokenRepository(db *gorm.DB) *PurchasedTokenRepository {
	return &PurchasedTokenRepository{
		db: db,
	}
}

func (r *PurchasedTokenRepository) GetByUserID(userID uint) (*models.PurchasedToken, error) {
	var tokens models.PurchasedToken
	err := r.db.Where("user_id = ?", userID).First(&tokens).Error
	return &tokens, err
}

// Credit bakiyeyi additive olarak artırır. Satır yoksa önce oluşturur.
func (r *PurchasedTokenRepository) Credit(userID uint, amount int) error {
	_, err := r.GetByUserID(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := r.db.Create(&models.PurchasedToken{UserID: userID}).Error; err != nil {
			return err
		}
	}

	return r.db.Model(&models.PurchasedToken{}).
		Where("user_id = ?", userID).
		UpdateColumn("balance", gorm.Expr("balance + ?", amount)).Error
}
