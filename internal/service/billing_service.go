package service

import (
	"errors"
	"fmt"

	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"github.com/stripe/stripe-go/v74"
	"go.uber.org/zap"
)

var ErrNoPastDuePackage = errors.New("no past due subscription to retry")

type BillingService struct {
	gateway  PaymentGateway
	packages PackageStore
	payments PaymentStore
	opLog    OperationLogStore
	logger   *zap.Logger
}

func NewBillingService(gateway PaymentGateway, packages PackageStore, payments PaymentStore, opLog OperationLogStore, logger *zap.Logger) *BillingService {
	return &BillingService{
		gateway:  gateway,
		packages: packages,
		payments: payments,
		opLog:    opLog,
		logger:   logger,
	}
}

func (s *BillingService) GetPaymentHistory(userID uint) ([]models.Payment, error) {
	return s.payments.GetUserPaymentHistory(userID)
}

// RetryPayment PAST_DUE paketin son faturasını yeniden tahsil etmeyi dener.
// Başarıda paket ACTIVE olur ve sayaç sıfırlanır; başarısızlıkta sayaç
// artar, durum değişmez ve decline sebebi kategoriye çevrilir.
func (s *BillingService) RetryPayment(userID uint) (*models.RetryPaymentResponse, error) {
	pkg, err := s.packages.GetByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("package lookup failed: %w", err)
	}
	if pkg.Status != models.PackageStatusPastDue {
		return nil, ErrNoPastDuePackage
	}

	sub, err := s.gateway.GetSubscription(pkg.StripeSubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscription: %w", err)
	}
	if sub.LatestInvoice == nil {
		return nil, errors.New("subscription has no latest invoice")
	}

	if _, err := s.gateway.PayInvoice(sub.LatestInvoice.ID); err != nil {
		pkg.FailedPaymentCount++
		if updateErr := s.packages.Update(pkg); updateErr != nil {
			s.logger.Error("failed to bump failure counter",
				zap.Uint("user_id", userID), zap.Error(updateErr))
		}

		category, message := mapDeclineError(err)
		s.logger.Info("payment retry declined",
			zap.Uint("user_id", userID),
			zap.String("category", category))

		return &models.RetryPaymentResponse{
			Status:   "failed",
			Category: category,
			Message:  message,
		}, nil
	}

	pkg.Status = models.PackageStatusActive
	pkg.FailedPaymentCount = 0
	if err := s.packages.Update(pkg); err != nil {
		return nil, fmt.Errorf("failed to reactivate package: %w", err)
	}

	if err := s.opLog.Append(&models.OperationLog{
		UserID:   userID,
		Action:   "payment.retried",
		Entity:   "invoice",
		EntityID: sub.LatestInvoice.ID,
		Detail:   "retry succeeded, package reactivated",
	}); err != nil {
		s.logger.Warn("failed to append operation log",
			zap.Uint("user_id", userID), zap.Error(err))
	}

	return &models.RetryPaymentResponse{
		Status: "active",
	}, nil
}

// mapDeclineError Stripe decline sebeplerini kullanıcıya gösterilecek
// sabit kategorilere indirger.
func mapDeclineError(err error) (string, string) {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return "generic", "Payment failed. Please try again or contact support."
	}

	switch {
	case stripeErr.DeclineCode == "insufficient_funds":
		return "insufficient_funds", "Your card has insufficient funds."
	case stripeErr.DeclineCode == "authentication_required":
		return "authentication_required", "This payment requires additional authentication from your bank."
	case stripeErr.Code == "expired_card":
		return "expired_card", "Your card has expired. Please update your payment method."
	case stripeErr.Code == "card_declined":
		return "card_declined", "Your card was declined."
	default:
		return "generic", "Payment failed. Please try again or contact support."
	}
}
