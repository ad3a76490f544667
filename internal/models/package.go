package models

import "time"

// Package durumları, Stripe subscription durumlarının yerel karşılığı
const (
	PackageStatusActive   = "ACTIVE"
	PackageStatusPastDue  = "PAST_DUE"
	PackageStatusCanceled = "CANCELED"
)

type Package struct {
	ID                   uint      `json:"id" gorm:"primaryKey"`
	UserID               uint      `json:"user_id" gorm:"not null;index"`
	PlanName             string    `json:"plan_name" gorm:"not null"`
	Status               string    `json:"status" gorm:"not null;default:'ACTIVE'"`
	StartedAt            time.Time `json:"started_at"`
	ExpiresAt            time.Time `json:"expires_at"`
	StripeSubscriptionID string    `json:"stripe_subscription_id" gorm:"index"`
	FailedPaymentCount   int       `json:"failed_payment_count" gorm:"default:0"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
