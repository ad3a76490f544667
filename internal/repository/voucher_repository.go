package repository

import (
	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"gorm.io/gorm"
)

type VoucherRepository struct {
	db *gorm.DB
}

func NewVoucherRepository(db *gorm.DB) *VoucherRepository {
	return &VoucherRepository{
		db: db,
	}
}

func (r *VoucherRepository) Create(voucher *models.Voucher) error {
	return r.db.Create(voucher).Error
}

func (r *VoucherRepository) GetActiveOneTimeByUser(userID uint) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.db.Where("user_id = ? AND one_time = ? AND disabled = ?", userID, true, false).
		First(&voucher).Error
	return &voucher, err
}

func (r *VoucherRepository) Disable(id uint) error {
	return r.db.Model(&models.Voucher{}).Where("id = ?", id).
		Update("disabled", true).Error
}
