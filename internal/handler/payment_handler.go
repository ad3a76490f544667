package handler

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"github.com/plagiacheck/plagiacheck-backend/internal/service"
	"github.com/plagiacheck/plagiacheck-backend/pkg/storage"
	"github.com/stripe/stripe-go/v74/webhook"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	checkoutService *service.CheckoutService
	webhookService  *service.WebhookService
	billingService  *service.BillingService
	archive         *storage.WebhookArchive
	logger          *zap.Logger
}

func NewPaymentHandler(checkoutService *service.CheckoutService, webhookService *service.WebhookService, billingService *service.BillingService, archive *storage.WebhookArchive, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		checkoutService: checkoutService,
		webhookService:  webhookService,
		billingService:  billingService,
		archive:         archive,
		logger:          logger,
	}
}

// CreatePlanCheckout plan aboneliği için checkout linki üretip Stripe'a
// yönlendirir. Origin kontrolü middleware'de yapılıyor.
func (h *PaymentHandler) CreatePlanCheckout(c *fiber.Ctx) error {
	return h.createCheckout(c, models.CheckoutKindPlan)
}

// CreateTokenCheckout tek seferlik token paketi satın alma linki üretir.
func (h *PaymentHandler) CreateTokenCheckout(c *fiber.Ctx) error {
	return h.createCheckout(c, models.CheckoutKindTokens)
}

func (h *PaymentHandler) createCheckout(c *fiber.Ctx, kind models.CheckoutKind) error {
	userID, err := strconv.ParseUint(c.Query("userId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid or missing userId"))
	}

	priceID := c.Query("priceId")
	if priceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Missing priceId"))
	}

	req := service.CheckoutLinkRequest{
		Kind:    kind,
		UserID:  uint(userID),
		PriceID: priceID,
		Email:   c.Query("email"),
		Locale:  c.Query("locale"),
	}

	if kind == models.CheckoutKindTokens {
		quantity, err := strconv.ParseInt(c.Query("tokens"), 10, 64)
		if err != nil || quantity <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid or missing tokens"))
		}
		req.Quantity = quantity
	}

	sess, err := h.checkoutService.CreateCheckoutLink(req)
	if err != nil {
		h.logger.Error("checkout link creation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.Redirect(sess.URL, fiber.StatusSeeOther)
}

// HandleSuccessRedirect Stripe'ın success dönüşü. Her durumda kullanıcıyı
// bir sayfaya yönlendirir; hatalar fallback sayfasına gider.
func (h *PaymentHandler) HandleSuccessRedirect(c *fiber.Ctx) error {
	params, err := parseRedirectParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}
	if params.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Missing session_id"))
	}

	target, err := h.checkoutService.HandleSuccessRedirect(*params)
	if err != nil {
		h.logger.Warn("success redirect rejected",
			zap.Uint("user_id", params.UserID),
			zap.String("session_id", params.SessionID),
			zap.Error(err))
	}

	return c.Redirect(target, fiber.StatusFound)
}

func (h *PaymentHandler) HandleCancelRedirect(c *fiber.Ctx) error {
	params, err := parseRedirectParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	target, err := h.checkoutService.HandleCancelRedirect(*params)
	if err != nil {
		h.logger.Warn("cancel redirect rejected",
			zap.Uint("user_id", params.UserID), zap.Error(err))
	}

	return c.Redirect(target, fiber.StatusFound)
}

func parseRedirectParams(c *fiber.Ctx) (*service.RedirectParams, error) {
	userID, err := strconv.ParseUint(c.Query("userId"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid or missing userId")
	}

	token := c.Query("token")
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}

	issuedAt, err := strconv.ParseInt(c.Query("ts"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid or missing ts")
	}

	kind := models.CheckoutKind(c.Query("kind"))
	if kind != models.CheckoutKindPlan && kind != models.CheckoutKindTokens {
		return nil, fmt.Errorf("invalid or missing kind")
	}

	return &service.RedirectParams{
		Kind:      kind,
		UserID:    uint(userID),
		Token:     token,
		IssuedAt:  issuedAt,
		SessionID: c.Query("session_id"),
		PlanName:  c.Query("plan"),
		Locale:    c.Query("locale"),
	}, nil
}

func (h *PaymentHandler) HandleStripeWebhook(c *fiber.Ctx) error {
	webhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	payload := c.Body()
	signatureHeader := c.Get("Stripe-Signature")

	// API version mismatch'i ignore et
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(fmt.Sprintf("Webhook error: %v", err)))
	}

	// Ham payload işlenmeden önce arşive yazılır; arşiv hatası akışı kesmez
	if h.archive != nil {
		key := fmt.Sprintf("webhooks/%s/%s.json", time.Now().UTC().Format("2006-01-02"), event.ID)
		if err := h.archive.Put(c.Context(), key, payload); err != nil {
			h.logger.Warn("failed to archive webhook payload",
				zap.String("event_id", event.ID), zap.Error(err))
		}
	}

	if err := h.webhookService.HandleEvent(&event); err != nil {
		h.logger.Error("webhook processing failed",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(fiber.Map{
		"received": true,
	})
}

func (h *PaymentHandler) RetryPayment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	result, err := h.billingService.RetryPayment(userID)
	if err != nil {
		if err == service.ErrNoPastDuePackage {
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(result, ""))
}

func (h *PaymentHandler) GetPaymentHistory(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	payments, err := h.billingService.GetPaymentHistory(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(payments, ""))
}
