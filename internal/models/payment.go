package models

import "time"

const (
	PaymentTypeSubscription = "subscription"
	PaymentTypeOneTime      = "one_time"
)

// Payment, Stripe tarafındaki payment/invoice kaydının yerel kopyası.
// StripePaymentID primary key olduğu için aynı ödeme iki kez yazılamaz.
type Payment struct {
	StripePaymentID string    `json:"stripe_payment_id" gorm:"primaryKey"`
	UserID          uint      `json:"user_id" gorm:"not null;index"`
	Amount          string    `json:"amount" gorm:"not null"`
	Currency        string    `json:"currency" gorm:"not null;default:'usd'"`
	Status          string    `json:"status" gorm:"not null"`
	Type            string    `json:"type" gorm:"not null"`
	Processed       bool      `json:"processed" gorm:"default:false"`
	ReferrerCode    string    `json:"referrer_code,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
