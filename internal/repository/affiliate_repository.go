package repository

import (
	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"gorm.io/gorm"
)

type AffiliateRepository struct {
	db *gorm.DB
}

func NewAffiliateRepository(db *gorm.DB) *AffiliateRepository {
	return &AffiliateRepository{
		db: db,
	}
}

func (r *AffiliateRepository) GetByCode(code string) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	err := r.db.Where("code = ?", code).First(&affiliate).Error
	return &affiliate, err
}

// Accrue komisyonu bakiyeye ve toplam kazanca ekler.
func (r *AffiliateRepository) Accrue(code string, amount float64) error {
	return r.db.Model(&models.Affiliate{}).
		Where("code = ?", code).
		Updates(map[string]interface{}{
			"balance":      gorm.Expr("balance + ?", amount),
			"total_earned": gorm.Expr("total_earned + ?", amount),
		}).Error
}
