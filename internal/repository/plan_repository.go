package repository

import (
	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"gorm.io/gorm"
)

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{
		db: db,
	}
}

func (r *PlanRepository) GetByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.First(&plan, id).Error
	return &plan, err
}

func (r *PlanRepository) GetByName(name string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("name = ?", name).First(&plan).Error
	return &plan, err
}

func (r *PlanRepository) GetByPriceID(priceID string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("stripe_price_id = ?", priceID).First(&plan).Error
	return &plan, err
}

func (r *PlanRepository) GetAllActive() ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.Where("is_active = ?", true).Find(&plans).Error
	return plans, err
}
