package repository

import (
	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"gorm.io/gorm"
)

type PackageRepository struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{
		db: db,
	}
}

func (r *PackageRepository) Create(pkg *models.Package) error {
	return r.db.Create(pkg).Error
}

func (r *PackageRepository) GetByUserID(userID uint) (*models.Package, error) {
	var pkg models.Package
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&pkg).Error
	return &pkg, err
}

func (r *PackageRepository) GetBySubscriptionID(subscriptionID string) (*models.Package, error) {
	var pkg models.Package
	err := r.db.Where("stripe_subscription_id = ?", subscriptionID).First(&pkg).Error
	return &pkg, err
}

func (r *PackageRepository) GetByUserAndSubscription(userID uint, subscriptionID string) (*models.Package, error) {
	var pkg models.Package
	err := r.db.Where("user_id = ? AND stripe_subscription_id = ?", userID, subscriptionID).
		First(&pkg).Error
	return &pkg, err
}

func (r *PackageRepository) Update(pkg *models.Package) error {
	return r.db.Save(pkg).Error
}
