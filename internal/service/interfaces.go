package service

import (
	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"github.com/plagiacheck/plagiacheck-backend/pkg/payment"
	"github.com/stripe/stripe-go/v74"
)

// PaymentGateway Stripe çağrılarının soyutlaması. Testlerde fake ile
// değiştirilir, production'da pkg/payment.StripeService kullanılır.
type PaymentGateway interface {
	CreateCheckoutSession(p payment.CheckoutParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(id string) (*stripe.CheckoutSession, error)
	GetInvoice(id string) (*stripe.Invoice, error)
	PayInvoice(id string) (*stripe.Invoice, error)
	ListRecentInvoices(subscriptionID string, limit int64) ([]*stripe.Invoice, error)
	GetSubscription(id string) (*stripe.Subscription, error)
	CancelSubscription(id string) (*stripe.Subscription, error)
}

type UserStore interface {
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
}

type PlanStore interface {
	GetByName(name string) (*models.Plan, error)
	GetByPriceID(priceID string) (*models.Plan, error)
	GetAllActive() ([]models.Plan, error)
}

type PackageStore interface {
	Create(pkg *models.Package) error
	GetByUserID(userID uint) (*models.Package, error)
	GetBySubscriptionID(subscriptionID string) (*models.Package, error)
	GetByUserAndSubscription(userID uint, subscriptionID string) (*models.Package, error)
	Update(pkg *models.Package) error
}

type PaymentStore interface {
	Create(payment *models.Payment) error
	Exists(stripePaymentID string) (bool, error)
	GetUserPaymentHistory(userID uint) ([]models.Payment, error)
}

type OneTimeTokenStore interface {
	Create(token *models.OneTimeToken) error
	Consume(token string, userID uint) (bool, error)
}

type PurchasedTokenStore interface {
	GetByUserID(userID uint) (*models.PurchasedToken, error)
	Credit(userID uint, amount int) error
}

type VoucherStore interface {
	GetActiveOneTimeByUser(userID uint) (*models.Voucher, error)
	Disable(id uint) error
}

type AffiliateStore interface {
	GetByCode(code string) (*models.Affiliate, error)
	Accrue(code string, amount float64) error
}

type OperationLogStore interface {
	Append(entry *models.OperationLog) error
	ListByUser(userID uint) ([]models.OperationLog, error)
}

type Mailer interface {
	SendPaymentFailedEmail(to, name, plan, retryURL string) error
	SendSubscriptionCanceledEmail(to, name, plan string) error
}
