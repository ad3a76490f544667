package models

import "time"

type Voucher struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Code        string    `json:"code" gorm:"unique;not null"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	DiscountPct int       `json:"discount_pct" gorm:"not null"`
	OneTime     bool      `json:"one_time" gorm:"default:true"`
	Disabled    bool      `json:"disabled" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Affiliate referans komisyonu hesabı. Balance ödenmemiş komisyon,
// TotalEarned bugüne kadarki toplam.
type Affiliate struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UserID        uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	Code          string    `json:"code" gorm:"uniqueIndex;not null"`
	CommissionPct float64   `json:"commission_pct" gorm:"not null;default:0.3"`
	Balance       float64   `json:"balance" gorm:"not null;default:0"`
	TotalEarned   float64   `json:"total_earned" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
