package config

import (
	"os"
	"strings"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type ResendConfig struct {
	APIKey      string
	FromAddress string
	FromName    string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

type Config struct {
	Port           string
	DatabaseURL    string
	AppURL         string // marketing sitesinin base URL'i (redirect hedefleri)
	APIBaseURL     string // bu servisin dışarıdan görünen adresi
	APISecret      string // checkout doğrulama tokeni için HMAC secret
	AllowedOrigins []string
	Stripe         StripeConfig
	Resend         ResendConfig
	R2             R2Config
	TurnstileKey   string
}

func LoadConfig() *Config {
	cfg := &Config{
		Port:         os.Getenv("PORT"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		AppURL:       os.Getenv("APP_URL"),
		APIBaseURL:   os.Getenv("API_BASE_URL"),
		APISecret:    os.Getenv("API_SECRET"),
		TurnstileKey: os.Getenv("CF_TURNSTILE_SECRET_KEY"),
	}

	cfg.Stripe.SecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.Stripe.WebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")

	cfg.Resend.APIKey = os.Getenv("RESEND_API_KEY")
	cfg.Resend.FromAddress = os.Getenv("EMAIL_FROM_ADDRESS")
	cfg.Resend.FromName = os.Getenv("EMAIL_FROM_NAME")

	cfg.R2.AccountID = os.Getenv("R2_ACCOUNT_ID")
	cfg.R2.AccessKeyID = os.Getenv("R2_ACCESS_KEY_ID")
	cfg.R2.SecretAccessKey = os.Getenv("R2_SECRET_ACCESS_KEY")
	cfg.R2.Bucket = os.Getenv("R2_BUCKET")

	// Virgülle ayrılmış origin listesi
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	return cfg
}
