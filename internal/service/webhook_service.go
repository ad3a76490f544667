package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/plagiacheck/plagiacheck-backend/internal/config"
	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"github.com/plagiacheck/plagiacheck-backend/pkg/utils"
	"github.com/stripe/stripe-go/v74"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// İki ardışık başarısız fatura aboneliği iptal eder.
const consecutiveFailureLimit = 2

type WebhookService struct {
	gateway         PaymentGateway
	users           UserStore
	plans           PlanStore
	packages        PackageStore
	payments        PaymentStore
	purchasedTokens PurchasedTokenStore
	opLog           OperationLogStore
	mailer          Mailer
	cfg             *config.Config
	logger          *zap.Logger
}

func NewWebhookService(
	gateway PaymentGateway,
	users UserStore,
	plans PlanStore,
	packages PackageStore,
	payments PaymentStore,
	purchasedTokens PurchasedTokenStore,
	opLog OperationLogStore,
	mailer Mailer,
	cfg *config.Config,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		gateway:         gateway,
		users:           users,
		plans:           plans,
		packages:        packages,
		payments:        payments,
		purchasedTokens: purchasedTokens,
		opLog:           opLog,
		mailer:          mailer,
		cfg:             cfg,
		logger:          logger,
	}
}

// HandleEvent imzası doğrulanmış Stripe eventini türüne göre işler.
// Bilinmeyen event'ler loglanıp 200 ile geçilir, Stripe retry etmesin.
func (s *WebhookService) HandleEvent(event *stripe.Event) error {
	switch event.Type {
	case "invoice.paid":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("failed to parse invoice payload: %w", err)
		}
		return s.handleInvoicePaid(&inv)

	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("failed to parse invoice payload: %w", err)
		}
		return s.handleInvoicePaymentFailed(&inv)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("failed to parse subscription payload: %w", err)
		}
		return s.handleSubscriptionDeleted(&sub)

	default:
		s.logger.Info("unhandled webhook event", zap.String("type", string(event.Type)))
		return nil
	}
}

// handleInvoicePaid sadece yenileme faturalarını işler; ilk fatura
// success redirect akışında zaten işlenmiş oluyor.
func (s *WebhookService) handleInvoicePaid(inv *stripe.Invoice) error {
	if inv.BillingReason != "subscription_cycle" {
		s.logger.Info("ignoring invoice.paid",
			zap.String("invoice_id", inv.ID),
			zap.String("billing_reason", string(inv.BillingReason)))
		return nil
	}
	if inv.Subscription == nil {
		return errors.New("cycle invoice without subscription")
	}

	pkg, err := s.packages.GetBySubscriptionID(inv.Subscription.ID)
	if err != nil {
		return fmt.Errorf("package lookup failed for subscription %s: %w", inv.Subscription.ID, err)
	}

	// Paket lokal olarak iptal edilmişse yenileme uygulanmaz,
	// Stripe tarafındaki abonelik de kapatılır.
	if pkg.Status == models.PackageStatusCanceled {
		if _, err := s.gateway.CancelSubscription(inv.Subscription.ID); err != nil {
			return fmt.Errorf("failed to cancel upstream subscription: %w", err)
		}
		s.logger.Info("renewal skipped for canceled package",
			zap.String("subscription_id", inv.Subscription.ID))
		return nil
	}

	exists, err := s.payments.Exists(inv.ID)
	if err != nil {
		return fmt.Errorf("payment lookup failed: %w", err)
	}
	if exists {
		return nil
	}

	err = s.payments.Create(&models.Payment{
		StripePaymentID: inv.ID,
		UserID:          pkg.UserID,
		Amount:          formatAmount(inv.AmountPaid),
		Currency:        string(inv.Currency),
		Status:          "succeeded",
		Type:            models.PaymentTypeSubscription,
		Processed:       true,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("failed to record renewal payment: %w", err)
	}

	plan, err := s.plans.GetByName(pkg.PlanName)
	if err != nil {
		return fmt.Errorf("unknown plan %q: %w", pkg.PlanName, err)
	}

	if err := s.purchasedTokens.Credit(pkg.UserID, plan.TokenAllocation); err != nil {
		return fmt.Errorf("failed to credit renewal tokens: %w", err)
	}

	pkg.ExpiresAt = utils.AddCalendarMonth(pkg.ExpiresAt)
	pkg.Status = models.PackageStatusActive
	pkg.FailedPaymentCount = 0
	if err := s.packages.Update(pkg); err != nil {
		return fmt.Errorf("failed to extend package: %w", err)
	}

	s.appendLog(pkg.UserID, "subscription.renewed", "invoice", inv.ID,
		fmt.Sprintf("plan %s extended to %s", pkg.PlanName, pkg.ExpiresAt.Format("2006-01-02")))

	return nil
}

func (s *WebhookService) handleInvoicePaymentFailed(inv *stripe.Invoice) error {
	if inv.Subscription == nil {
		return errors.New("failed invoice without subscription")
	}
	subID := inv.Subscription.ID

	pkg, err := s.packages.GetBySubscriptionID(subID)
	if err != nil {
		return fmt.Errorf("package lookup failed for subscription %s: %w", subID, err)
	}

	// Ardışık başarısızlık sayısı Stripe'ın fatura listesinden hesaplanır;
	// aynı event tekrar teslim edilirse sayı değişmez.
	invoices, err := s.gateway.ListRecentInvoices(subID, 5)
	if err != nil {
		return fmt.Errorf("failed to list invoices: %w", err)
	}

	failedCount := 0
	for _, recent := range invoices {
		if !recent.Paid && recent.AttemptCount > 0 {
			failedCount++
		}
	}
	pkg.FailedPaymentCount = failedCount

	if failedCount >= consecutiveFailureLimit {
		pkg.Status = models.PackageStatusCanceled
		if err := s.packages.Update(pkg); err != nil {
			return fmt.Errorf("failed to cancel package: %w", err)
		}

		s.appendLog(pkg.UserID, "package.canceled", "package", subID,
			fmt.Sprintf("%d consecutive failed invoices", failedCount))
		s.notifyCanceled(pkg)
		return nil
	}

	// Tek başarısızlıkta Stripe'ın abonelik durumu aynen yansıtılır
	sub, err := s.gateway.GetSubscription(subID)
	if err != nil {
		return fmt.Errorf("failed to fetch subscription: %w", err)
	}

	pkg.Status = mapSubscriptionStatus(sub.Status)
	if err := s.packages.Update(pkg); err != nil {
		return fmt.Errorf("failed to update package status: %w", err)
	}

	s.appendLog(pkg.UserID, "invoice.payment_failed", "invoice", inv.ID,
		fmt.Sprintf("status mirrored to %s", pkg.Status))
	s.notifyPaymentFailed(pkg)

	return nil
}

func (s *WebhookService) handleSubscriptionDeleted(sub *stripe.Subscription) error {
	pkg, err := s.lookupPackageForDeletion(sub)
	if err != nil {
		return err
	}

	if pkg.Status == models.PackageStatusCanceled {
		return nil
	}

	pkg.Status = models.PackageStatusCanceled
	if err := s.packages.Update(pkg); err != nil {
		return fmt.Errorf("failed to cancel package: %w", err)
	}

	s.appendLog(pkg.UserID, "package.canceled", "subscription", sub.ID,
		"subscription deleted upstream")
	s.notifyCanceled(pkg)

	return nil
}

// lookupPackageForDeletion metadata'daki userId ile (userId, subId) çifti
// üzerinden arar; metadata yoksa sadece subscription id ile bulur.
func (s *WebhookService) lookupPackageForDeletion(sub *stripe.Subscription) (*models.Package, error) {
	if raw, ok := sub.Metadata["userId"]; ok && raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 32)
		if err == nil {
			pkg, err := s.packages.GetByUserAndSubscription(uint(userID), sub.ID)
			if err == nil {
				return pkg, nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("package lookup failed: %w", err)
			}
		}
	}

	pkg, err := s.packages.GetBySubscriptionID(sub.ID)
	if err != nil {
		return nil, fmt.Errorf("package lookup failed for subscription %s: %w", sub.ID, err)
	}
	return pkg, nil
}

func (s *WebhookService) notifyPaymentFailed(pkg *models.Package) {
	user, err := s.users.GetByID(pkg.UserID)
	if err != nil {
		s.logger.Warn("user lookup failed for dunning email",
			zap.Uint("user_id", pkg.UserID), zap.Error(err))
		return
	}

	retryURL := fmt.Sprintf("%s/en/account/billing", s.cfg.AppURL)
	if err := s.mailer.SendPaymentFailedEmail(user.Email, user.FullName, pkg.PlanName, retryURL); err != nil {
		s.logger.Warn("failed to send payment failed email",
			zap.Uint("user_id", pkg.UserID), zap.Error(err))
	}
}

func (s *WebhookService) notifyCanceled(pkg *models.Package) {
	user, err := s.users.GetByID(pkg.UserID)
	if err != nil {
		s.logger.Warn("user lookup failed for cancellation email",
			zap.Uint("user_id", pkg.UserID), zap.Error(err))
		return
	}

	if err := s.mailer.SendSubscriptionCanceledEmail(user.Email, user.FullName, pkg.PlanName); err != nil {
		s.logger.Warn("failed to send cancellation email",
			zap.Uint("user_id", pkg.UserID), zap.Error(err))
	}
}

func (s *WebhookService) appendLog(userID uint, action, entity, entityID, detail string) {
	if err := s.opLog.Append(&models.OperationLog{
		UserID:   userID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Detail:   detail,
	}); err != nil {
		s.logger.Warn("failed to append operation log",
			zap.Uint("user_id", userID), zap.String("action", action), zap.Error(err))
	}
}

func mapSubscriptionStatus(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusActive:
		return models.PackageStatusActive
	case stripe.SubscriptionStatusPastDue:
		return models.PackageStatusPastDue
	case stripe.SubscriptionStatusCanceled:
		return models.PackageStatusCanceled
	default:
		return strings.ToUpper(string(status))
	}
}
