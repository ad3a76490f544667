package repository

import (
	"errors"

	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{
		db: db,
	}
}

// Create aynı Stripe payment id ikinci kez insert edilirse primary key
// ihlaliyle düşer; idempotency'nin son savunma hattı bu.
func (r *PaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

func (r *PaymentRepository) GetByStripeID(stripePaymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("stripe_payment_id = ?", stripePaymentID).First(&payment).Error
	return &payment, err
}

func (r *PaymentRepository) Exists(stripePaymentID string) (bool, error) {
	_, err := r.GetByStripeID(stripePaymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *PaymentRepository) GetUserPaymentHistory(userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}
