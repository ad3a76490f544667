package service

import (
	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"github.com/plagiacheck/plagiacheck-backend/pkg/payment"
	"github.com/stripe/stripe-go/v74"
	"gorm.io/gorm"
)

type fakeGateway struct {
	session      *stripe.CheckoutSession
	sessionErr   error
	subscription *stripe.Subscription
	invoices     []*stripe.Invoice
	payErr       error

	canceledSubs []string
	paidInvoices []string
}

func (g *fakeGateway) CreateCheckoutSession(p payment.CheckoutParams) (*stripe.CheckoutSession, error) {
	return g.session, g.sessionErr
}

func (g *fakeGateway) GetCheckoutSession(id string) (*stripe.CheckoutSession, error) {
	return g.session, g.sessionErr
}

func (g *fakeGateway) GetInvoice(id string) (*stripe.Invoice, error) {
	for _, inv := range g.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (g *fakeGateway) PayInvoice(id string) (*stripe.Invoice, error) {
	if g.payErr != nil {
		return nil, g.payErr
	}
	g.paidInvoices = append(g.paidInvoices, id)
	return &stripe.Invoice{ID: id, Paid: true}, nil
}

func (g *fakeGateway) ListRecentInvoices(subscriptionID string, limit int64) ([]*stripe.Invoice, error) {
	return g.invoices, nil
}

func (g *fakeGateway) GetSubscription(id string) (*stripe.Subscription, error) {
	return g.subscription, nil
}

func (g *fakeGateway) CancelSubscription(id string) (*stripe.Subscription, error) {
	g.canceledSubs = append(g.canceledSubs, id)
	return &stripe.Subscription{ID: id, Status: stripe.SubscriptionStatusCanceled}, nil
}

type fakeUserStore struct {
	users map[uint]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[uint]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) GetByID(id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *fakeUserStore) GetByEmail(email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeUserStore) Update(user *models.User) error {
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

type fakePlanStore struct {
	plans []*models.Plan
}

func (s *fakePlanStore) GetByName(name string) (*models.Plan, error) {
	for _, p := range s.plans {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakePlanStore) GetByPriceID(priceID string) (*models.Plan, error) {
	for _, p := range s.plans {
		if p.StripePriceID == priceID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakePlanStore) GetAllActive() ([]models.Plan, error) {
	var out []models.Plan
	for _, p := range s.plans {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakePackageStore struct {
	packages []*models.Package
	nextID   uint
}

func (s *fakePackageStore) Create(pkg *models.Package) error {
	s.nextID++
	pkg.ID = s.nextID
	copied := *pkg
	s.packages = append(s.packages, &copied)
	return nil
}

func (s *fakePackageStore) GetByUserID(userID uint) (*models.Package, error) {
	for _, p := range s.packages {
		if p.UserID == userID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakePackageStore) GetBySubscriptionID(subscriptionID string) (*models.Package, error) {
	for _, p := range s.packages {
		if p.StripeSubscriptionID == subscriptionID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakePackageStore) GetByUserAndSubscription(userID uint, subscriptionID string) (*models.Package, error) {
	for _, p := range s.packages {
		if p.UserID == userID && p.StripeSubscriptionID == subscriptionID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakePackageStore) Update(pkg *models.Package) error {
	for i, p := range s.packages {
		if p.ID == pkg.ID {
			copied := *pkg
			s.packages[i] = &copied
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakePaymentStore struct {
	payments map[string]*models.Payment
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[string]*models.Payment)}
}

func (s *fakePaymentStore) Create(p *models.Payment) error {
	if _, ok := s.payments[p.StripePaymentID]; ok {
		return gorm.ErrDuplicatedKey
	}
	copied := *p
	s.payments[p.StripePaymentID] = &copied
	return nil
}

func (s *fakePaymentStore) Exists(stripePaymentID string) (bool, error) {
	_, ok := s.payments[stripePaymentID]
	return ok, nil
}

func (s *fakePaymentStore) GetUserPaymentHistory(userID uint) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range s.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeOneTimeTokenStore struct {
	tokens map[string]*models.OneTimeToken
}

func newFakeOneTimeTokenStore() *fakeOneTimeTokenStore {
	return &fakeOneTimeTokenStore{tokens: make(map[string]*models.OneTimeToken)}
}

func (s *fakeOneTimeTokenStore) Create(t *models.OneTimeToken) error {
	copied := *t
	s.tokens[t.Token] = &copied
	return nil
}

func (s *fakeOneTimeTokenStore) Consume(token string, userID uint) (bool, error) {
	t, ok := s.tokens[token]
	if !ok || t.UserID != userID || t.Used {
		return false, nil
	}
	t.Used = true
	return true, nil
}

type fakePurchasedTokenStore struct {
	balances map[uint]int
}

func newFakePurchasedTokenStore() *fakePurchasedTokenStore {
	return &fakePurchasedTokenStore{balances: make(map[uint]int)}
}

func (s *fakePurchasedTokenStore) GetByUserID(userID uint) (*models.PurchasedToken, error) {
	balance, ok := s.balances[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.PurchasedToken{UserID: userID, Balance: balance}, nil
}

func (s *fakePurchasedTokenStore) Credit(userID uint, amount int) error {
	s.balances[userID] += amount
	return nil
}

type fakeVoucherStore struct {
	vouchers []*models.Voucher
}

func (s *fakeVoucherStore) GetActiveOneTimeByUser(userID uint) (*models.Voucher, error) {
	for _, v := range s.vouchers {
		if v.UserID == userID && v.OneTime && !v.Disabled {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeVoucherStore) Disable(id uint) error {
	for _, v := range s.vouchers {
		if v.ID == id {
			v.Disabled = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeAffiliateStore struct {
	affiliates map[string]*models.Affiliate
}

func newFakeAffiliateStore(affiliates ...*models.Affiliate) *fakeAffiliateStore {
	s := &fakeAffiliateStore{affiliates: make(map[string]*models.Affiliate)}
	for _, a := range affiliates {
		s.affiliates[a.Code] = a
	}
	return s
}

func (s *fakeAffiliateStore) GetByCode(code string) (*models.Affiliate, error) {
	a, ok := s.affiliates[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (s *fakeAffiliateStore) Accrue(code string, amount float64) error {
	a, ok := s.affiliates[code]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Balance += amount
	a.TotalEarned += amount
	return nil
}

type fakeOpLogStore struct {
	entries []models.OperationLog
}

func (s *fakeOpLogStore) Append(entry *models.OperationLog) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *fakeOpLogStore) ListByUser(userID uint) ([]models.OperationLog, error) {
	var out []models.OperationLog
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeMailer struct {
	paymentFailed []string
	canceled      []string
}

func (m *fakeMailer) SendPaymentFailedEmail(to, name, plan, retryURL string) error {
	m.paymentFailed = append(m.paymentFailed, to)
	return nil
}

func (m *fakeMailer) SendSubscriptionCanceledEmail(to, name, plan string) error {
	m.canceled = append(m.canceled, to)
	return nil
}
