package main

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/plagiacheck/plagiacheck-backend/internal/config"
	"github.com/plagiacheck/plagiacheck-backend/internal/handler"
	"github.com/plagiacheck/plagiacheck-backend/internal/middleware"
	"github.com/plagiacheck/plagiacheck-backend/internal/repository"
	"github.com/plagiacheck/plagiacheck-backend/internal/service"
	"github.com/plagiacheck/plagiacheck-backend/pkg/database"
	"github.com/plagiacheck/plagiacheck-backend/pkg/email"
	"github.com/plagiacheck/plagiacheck-backend/pkg/logger"
	"github.com/plagiacheck/plagiacheck-backend/pkg/payment"
	"github.com/plagiacheck/plagiacheck-backend/pkg/storage"
	"github.com/plagiacheck/plagiacheck-backend/pkg/utils"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg := config.LoadConfig()

	zapLogger, err := logger.New()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zapLogger.Sync()

	// Initialize database
	db := database.NewDatabase()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	planRepo := repository.NewPlanRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	oneTimeTokenRepo := repository.NewOneTimeTokenRepository(db)
	purchasedTokenRepo := repository.NewPurchasedTokenRepository(db)
	voucherRepo := repository.NewVoucherRepository(db)
	affiliateRepo := repository.NewAffiliateRepository(db)
	opLogRepo := repository.NewOperationLogRepository(db)

	// Email service
	emailService := email.NewEmailService()

	// Stripe service
	stripeService := payment.NewStripeService(cfg.Stripe.SecretKey)

	// Webhook payload arşivi (R2 tanımlı değilse devre dışı)
	var archive *storage.WebhookArchive
	if cfg.R2.Bucket != "" {
		archive, err = storage.NewWebhookArchive(cfg)
		if err != nil {
			log.Fatal("Failed to initialize webhook archive:", err)
		}
	}

	// Services
	authService := service.NewAuthService(userRepo, voucherRepo, emailService, zapLogger)
	userService := service.NewUserService(userRepo, purchasedTokenRepo, packageRepo, opLogRepo)
	planService := service.NewPlanService(planRepo)
	checkoutService := service.NewCheckoutService(
		stripeService,
		userRepo,
		planRepo,
		packageRepo,
		paymentRepo,
		oneTimeTokenRepo,
		purchasedTokenRepo,
		voucherRepo,
		affiliateRepo,
		opLogRepo,
		cfg,
		zapLogger,
	)
	webhookService := service.NewWebhookService(
		stripeService,
		userRepo,
		planRepo,
		packageRepo,
		paymentRepo,
		purchasedTokenRepo,
		opLogRepo,
		emailService,
		cfg,
		zapLogger,
	)
	billingService := service.NewBillingService(stripeService, packageRepo, paymentRepo, opLogRepo, zapLogger)

	validator := utils.NewValidator()

	// Handlers
	authHandler := handler.NewAuthHandler(authService, validator)
	userHandler := handler.NewUserHandler(userService)
	planHandler := handler.NewPlanHandler(planService)
	paymentHandler := handler.NewPaymentHandler(checkoutService, webhookService, billingService, archive, zapLogger)

	// Router
	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ", "),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE",
		AllowCredentials: true,
	}))
	app.Use(fiberlogger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	api := app.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password", authHandler.ResetPassword)

	api.Get("/plans", planHandler.GetPlans)

	// Checkout linkleri sadece allowlist'teki sitelerden üretilebilir
	checkout := api.Group("/payments/checkout", middleware.OriginCheck(cfg.AllowedOrigins))
	checkout.Get("/plan", paymentHandler.CreatePlanCheckout)
	checkout.Get("/tokens", paymentHandler.CreateTokenCheckout)

	// Stripe redirect'leri ve webhook (public)
	api.Get("/payments/success", paymentHandler.HandleSuccessRedirect)
	api.Get("/payments/cancelled", paymentHandler.HandleCancelRedirect)
	api.Post("/payments/webhook", paymentHandler.HandleStripeWebhook)

	// Protected routes
	api.Use(middleware.AuthMiddleware())
	{
		user := api.Group("/user")
		user.Get("/profile", userHandler.GetMyProfile)
		user.Put("/profile", userHandler.UpdateProfile)
		user.Get("/tokens", userHandler.GetTokenBalance)
		user.Get("/package", userHandler.GetMyPackage)
		user.Get("/operations", userHandler.GetOperations)

		payments := api.Group("/payments")
		payments.Get("/history", paymentHandler.GetPaymentHistory)
		payments.Post("/retry", paymentHandler.RetryPayment)
	}

	// Start server
	log.Fatal(app.Listen(":" + cfg.Port))
}
