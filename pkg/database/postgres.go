package database

import (
	"log"
	"os"

	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDatabase() *gorm.DB {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	// TranslateError açık olmalı, idempotency guard'ı
	// gorm.ErrDuplicatedKey üzerinden çalışıyor
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := RunMigrations(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Plan{},
		&models.Package{},
		&models.Payment{},
		&models.PurchasedToken{},
		&models.OneTimeToken{},
		&models.Voucher{},
		&models.Affiliate{},
		&models.OperationLog{},
	)
	if err != nil {
		return err
	}

	// Plan kataloğu (yoksa ekle)
	plans := []models.Plan{
		{
			Name:            "Basic",
			Description:     "200 tokens per month, all text tools",
			StripePriceID:   os.Getenv("STRIPE_PRICE_BASIC"),
			Price:           12.00,
			TokenAllocation: 200,
			Interval:        "month",
			IsActive:        true,
		},
		{
			Name:            "Pro",
			Description:     "1000 tokens per month, all text tools, priority support",
			StripePriceID:   os.Getenv("STRIPE_PRICE_PRO"),
			Price:           39.00,
			TokenAllocation: 1000,
			Interval:        "month",
			IsActive:        true,
		},
	}

	for _, plan := range plans {
		var count int64
		db.Model(&models.Plan{}).Where("name = ?", plan.Name).Count(&count)
		if count == 0 {
			if err := db.Create(&plan).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
