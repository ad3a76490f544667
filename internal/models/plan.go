package models

import "time"

type Plan struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Name            string    `json:"name" gorm:"unique;not null"`
	Description     string    `json:"description"`
	StripePriceID   string    `json:"stripe_price_id" gorm:"not null"`
	Price           float64   `json:"price" gorm:"not null"`
	TokenAllocation int       `json:"token_allocation" gorm:"not null"`
	Interval        string    `json:"interval" gorm:"not null;default:'month'"`
	IsActive        bool      `json:"is_active" gorm:"default:true"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
