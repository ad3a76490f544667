package payment

import (
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/invoice"
	"github.com/stripe/stripe-go/v74/subscription"
)

type StripeService struct {
	secretKey string
}

func NewStripeService(secretKey string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{
		secretKey: secretKey,
	}
}

// CheckoutParams hosted checkout session için gereken her şey.
// Mode "subscription" (plan) veya "payment" (token paketi) olabilir.
type CheckoutParams struct {
	Email      string
	PriceID    string
	Quantity   int64
	Mode       string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

func (s *StripeService) CreateCheckoutSession(p CheckoutParams) (*stripe.CheckoutSession, error) {
	if p.Quantity == 0 {
		p.Quantity = 1
	}

	params := &stripe.CheckoutSessionParams{
		CustomerEmail: stripe.String(p.Email),
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		Mode: stripe.String(p.Mode),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(p.Quantity),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}

	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	// Subscription objesine de aynı metadata'yı yaz, webhook lookup'ı
	// (customer.subscription.deleted) bunu kullanıyor.
	if p.Mode == string(stripe.CheckoutSessionModeSubscription) {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: p.Metadata,
		}
	}

	return session.New(params)
}

// GetCheckoutSession session'ı payment_intent ve subscription.latest_invoice
// expand edilmiş halde getirir; success handler ödeme id'sini buradan alır.
func (s *StripeService) GetCheckoutSession(id string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.AddExpand("payment_intent")
	params.AddExpand("subscription.latest_invoice")
	return session.Get(id, params)
}

func (s *StripeService) GetInvoice(id string) (*stripe.Invoice, error) {
	return invoice.Get(id, nil)
}

func (s *StripeService) PayInvoice(id string) (*stripe.Invoice, error) {
	return invoice.Pay(id, &stripe.InvoicePayParams{})
}

// ListRecentInvoices subscription'ın son faturalarını döner (en yeni önce).
func (s *StripeService) ListRecentInvoices(subscriptionID string, limit int64) ([]*stripe.Invoice, error) {
	params := &stripe.InvoiceListParams{
		Subscription: stripe.String(subscriptionID),
	}
	params.Limit = stripe.Int64(limit)

	var invoices []*stripe.Invoice
	iter := invoice.List(params)
	for iter.Next() {
		invoices = append(invoices, iter.Invoice())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (s *StripeService) GetSubscription(id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.AddExpand("latest_invoice")
	return subscription.Get(id, params)
}

func (s *StripeService) CancelSubscription(id string) (*stripe.Subscription, error) {
	return subscription.Cancel(id, nil)
}
