package models

import (
	"time"
)

type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	FullName       string    `json:"full_name" gorm:"not null"`
	Email          string    `json:"email" gorm:"unique;not null"`
	Password       string    `json:"-" gorm:"not null"`
	FirstOfferUsed bool      `json:"first_offer_used" gorm:"default:false"`
	ReferredBy     string    `json:"referred_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
