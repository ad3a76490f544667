package service

import (
	"testing"
	"time"

	"github.com/plagiacheck/plagiacheck-backend/internal/config"
	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"github.com/plagiacheck/plagiacheck-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"
	"go.uber.org/zap"
)

type checkoutFixture struct {
	service         *CheckoutService
	gateway         *fakeGateway
	users           *fakeUserStore
	plans           *fakePlanStore
	packages        *fakePackageStore
	payments        *fakePaymentStore
	oneTimeTokens   *fakeOneTimeTokenStore
	purchasedTokens *fakePurchasedTokenStore
	vouchers        *fakeVoucherStore
	affiliates      *fakeAffiliateStore
	opLog           *fakeOpLogStore
	cfg             *config.Config
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	f := &checkoutFixture{
		gateway: &fakeGateway{},
		users: newFakeUserStore(&models.User{
			ID:       1,
			FullName: "Test User",
			Email:    "user@example.com",
		}),
		plans: &fakePlanStore{plans: []*models.Plan{
			{ID: 1, Name: "Basic", StripePriceID: "price_basic", Price: 12.00, TokenAllocation: 200, IsActive: true},
			{ID: 2, Name: "Pro", StripePriceID: "price_pro", Price: 39.00, TokenAllocation: 1000, IsActive: true},
		}},
		packages:        &fakePackageStore{},
		payments:        newFakePaymentStore(),
		oneTimeTokens:   newFakeOneTimeTokenStore(),
		purchasedTokens: newFakePurchasedTokenStore(),
		vouchers:        &fakeVoucherStore{},
		affiliates:      newFakeAffiliateStore(),
		opLog:           &fakeOpLogStore{},
		cfg: &config.Config{
			AppURL:     "https://plagiacheck.io",
			APIBaseURL: "https://api.plagiacheck.io",
			APISecret:  "test-secret",
		},
	}

	f.service = NewCheckoutService(
		f.gateway,
		f.users,
		f.plans,
		f.packages,
		f.payments,
		f.oneTimeTokens,
		f.purchasedTokens,
		f.vouchers,
		f.affiliates,
		f.opLog,
		f.cfg,
		zap.NewNop(),
	)

	return f
}

// freshRedirect 5 saniye önce üretilmiş geçerli bir dönüş hazırlar.
func (f *checkoutFixture) freshRedirect(kind models.CheckoutKind, planName string) RedirectParams {
	issuedAt := time.Now().Add(-5 * time.Second).UnixMilli()
	token := utils.SignCheckoutToken(1, issuedAt, f.cfg.APISecret)
	f.oneTimeTokens.Create(&models.OneTimeToken{Token: token, UserID: 1})

	return RedirectParams{
		Kind:      kind,
		UserID:    1,
		Token:     token,
		IssuedAt:  issuedAt,
		SessionID: "cs_test_1",
		PlanName:  planName,
		Locale:    "en",
	}
}

func basicPlanSession() *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:          "cs_test_1",
		AmountTotal: 1200,
		Currency:    "usd",
		Metadata:    map[string]string{"userId": "1", "plan": "Basic"},
		Subscription: &stripe.Subscription{
			ID:            "sub_1",
			LatestInvoice: &stripe.Invoice{ID: "in_1"},
		},
	}
}

func TestSuccessRedirectBasicPlan(t *testing.T) {
	f := newCheckoutFixture(t)
	f.gateway.session = basicPlanSession()
	params := f.freshRedirect(models.CheckoutKindPlan, "Basic")

	target, err := f.service.HandleSuccessRedirect(params)
	require.NoError(t, err)
	assert.Equal(t, "https://plagiacheck.io/en/payment/success", target)

	// Tam olarak bir Payment satırı, "12.00" tutarla
	require.Len(t, f.payments.payments, 1)
	p := f.payments.payments["in_1"]
	require.NotNil(t, p)
	assert.Equal(t, "12.00", p.Amount)
	assert.Equal(t, models.PaymentTypeSubscription, p.Type)
	assert.True(t, p.Processed)

	// ACTIVE paket, bir takvim ayı sonrası bitiş
	pkg, err := f.packages.GetByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, models.PackageStatusActive, pkg.Status)
	assert.Equal(t, "Basic", pkg.PlanName)
	assert.Equal(t, "sub_1", pkg.StripeSubscriptionID)
	wantExpiry := utils.AddCalendarMonth(time.Now())
	assert.WithinDuration(t, wantExpiry, pkg.ExpiresAt, time.Minute)

	// Basic planın token tahsisi
	assert.Equal(t, 200, f.purchasedTokens.balances[1])
}

func TestSuccessRedirectIsIdempotent(t *testing.T) {
	f := newCheckoutFixture(t)
	f.gateway.session = basicPlanSession()

	params := f.freshRedirect(models.CheckoutKindPlan, "Basic")
	_, err := f.service.HandleSuccessRedirect(params)
	require.NoError(t, err)

	// Aynı session/payment için ikinci redirect: yeni token, aynı ödeme
	replay := f.freshRedirect(models.CheckoutKindPlan, "Basic")
	target, err := f.service.HandleSuccessRedirect(replay)
	require.NoError(t, err)
	assert.Equal(t, "https://plagiacheck.io/en/payment/success", target)

	assert.Len(t, f.payments.payments, 1)
	assert.Equal(t, 200, f.purchasedTokens.balances[1], "tokens must not be credited twice")
}

func TestSuccessRedirectRejectsUsedToken(t *testing.T) {
	f := newCheckoutFixture(t)
	f.gateway.session = basicPlanSession()

	params := f.freshRedirect(models.CheckoutKindPlan, "Basic")
	_, err := f.service.HandleSuccessRedirect(params)
	require.NoError(t, err)

	// Aynı token ikinci kez sunuluyor
	target, err := f.service.HandleSuccessRedirect(params)
	assert.ErrorIs(t, err, ErrTokenUsed)
	assert.Equal(t, "https://plagiacheck.io/en", target)
}

func TestSuccessRedirectRejectsExpiredTimestamp(t *testing.T) {
	f := newCheckoutFixture(t)
	f.gateway.session = basicPlanSession()

	issuedAt := time.Now().Add(-21 * time.Minute).UnixMilli()
	token := utils.SignCheckoutToken(1, issuedAt, f.cfg.APISecret)
	f.oneTimeTokens.Create(&models.OneTimeToken{Token: token, UserID: 1})

	params := RedirectParams{
		Kind:      models.CheckoutKindPlan,
		UserID:    1,
		Token:     token,
		IssuedAt:  issuedAt,
		SessionID: "cs_test_1",
		PlanName:  "Basic",
		Locale:    "en",
	}

	target, err := f.service.HandleSuccessRedirect(params)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, "https://plagiacheck.io/en", target)
	assert.Empty(t, f.payments.payments)
}

func TestTokenPackWindowIsShorter(t *testing.T) {
	f := newCheckoutFixture(t)

	// 10 dakika: plan akışında geçerli, token paketinde değil
	issuedAt := time.Now().Add(-10 * time.Minute).UnixMilli()
	token := utils.SignCheckoutToken(1, issuedAt, f.cfg.APISecret)
	f.oneTimeTokens.Create(&models.OneTimeToken{Token: token, UserID: 1})

	params := RedirectParams{
		Kind:     models.CheckoutKindTokens,
		UserID:   1,
		Token:    token,
		IssuedAt: issuedAt,
		Locale:   "en",
	}

	_, err := f.service.HandleCancelRedirect(params)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSuccessRedirectRejectsForgedToken(t *testing.T) {
	f := newCheckoutFixture(t)
	f.gateway.session = basicPlanSession()

	issuedAt := time.Now().UnixMilli()
	forged := utils.SignCheckoutToken(1, issuedAt, "wrong-secret")
	f.oneTimeTokens.Create(&models.OneTimeToken{Token: forged, UserID: 1})

	params := RedirectParams{
		Kind:      models.CheckoutKindPlan,
		UserID:    1,
		Token:     forged,
		IssuedAt:  issuedAt,
		SessionID: "cs_test_1",
		PlanName:  "Basic",
		Locale:    "en",
	}

	_, err := f.service.HandleSuccessRedirect(params)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.Empty(t, f.payments.payments)
}

func TestSuccessRedirectTokenPackPurchase(t *testing.T) {
	f := newCheckoutFixture(t)
	f.gateway.session = &stripe.CheckoutSession{
		ID:            "cs_test_1",
		AmountTotal:   500,
		Currency:      "usd",
		Metadata:      map[string]string{"userId": "1", "tokens": "50"},
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_1"},
	}

	params := f.freshRedirect(models.CheckoutKindTokens, "")
	_, err := f.service.HandleSuccessRedirect(params)
	require.NoError(t, err)

	p := f.payments.payments["pi_1"]
	require.NotNil(t, p)
	assert.Equal(t, models.PaymentTypeOneTime, p.Type)
	assert.Equal(t, "5.00", p.Amount)
	assert.Equal(t, 50, f.purchasedTokens.balances[1])
}

func TestSuccessRedirectAccruesAffiliateCommission(t *testing.T) {
	f := newCheckoutFixture(t)
	f.affiliates = newFakeAffiliateStore(&models.Affiliate{
		ID: 1, UserID: 9, Code: "ref123", CommissionPct: 0.3,
	})
	f.service.affiliates = f.affiliates

	sess := basicPlanSession()
	sess.Metadata["referrer"] = "ref123"
	f.gateway.session = sess

	params := f.freshRedirect(models.CheckoutKindPlan, "Basic")
	_, err := f.service.HandleSuccessRedirect(params)
	require.NoError(t, err)

	aff, err := f.affiliates.GetByCode("ref123")
	require.NoError(t, err)
	assert.InDelta(t, 3.60, aff.Balance, 0.001)
	assert.Equal(t, "ref123", f.payments.payments["in_1"].ReferrerCode)
}

func TestSuccessRedirectRetiresFirstOffer(t *testing.T) {
	f := newCheckoutFixture(t)
	f.gateway.session = basicPlanSession()
	f.vouchers.vouchers = []*models.Voucher{
		{ID: 1, Code: "WELCOME10", UserID: 1, DiscountPct: 20, OneTime: true},
	}

	params := f.freshRedirect(models.CheckoutKindPlan, "Basic")
	_, err := f.service.HandleSuccessRedirect(params)
	require.NoError(t, err)

	assert.True(t, f.vouchers.vouchers[0].Disabled)
	user, err := f.users.GetByID(1)
	require.NoError(t, err)
	assert.True(t, user.FirstOfferUsed)
}

func TestCancelRedirectConsumesTokenOnly(t *testing.T) {
	f := newCheckoutFixture(t)
	params := f.freshRedirect(models.CheckoutKindPlan, "Basic")

	target, err := f.service.HandleCancelRedirect(params)
	require.NoError(t, err)
	assert.Equal(t, "https://plagiacheck.io/en/pricing", target)

	// Token tüketildi, başka mutasyon yok
	consumed, err := f.oneTimeTokens.Consume(params.Token, 1)
	require.NoError(t, err)
	assert.False(t, consumed)
	assert.Empty(t, f.payments.payments)
	assert.Empty(t, f.packages.packages)

	// Aynı token tekrar sunulursa reddedilir
	_, err = f.service.HandleCancelRedirect(params)
	assert.ErrorIs(t, err, ErrTokenUsed)
}

func TestCreateCheckoutLinkStoresToken(t *testing.T) {
	f := newCheckoutFixture(t)
	f.gateway.session = &stripe.CheckoutSession{
		ID:  "cs_new",
		URL: "https://checkout.stripe.com/c/pay/cs_new",
	}

	sess, err := f.service.CreateCheckoutLink(CheckoutLinkRequest{
		Kind:    models.CheckoutKindPlan,
		UserID:  1,
		PriceID: "price_basic",
		Locale:  "en",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_new", sess.URL)
	assert.Len(t, f.oneTimeTokens.tokens, 1)

	for _, stored := range f.oneTimeTokens.tokens {
		assert.False(t, stored.Used)
		assert.Equal(t, uint(1), stored.UserID)
	}
}

func TestCreateCheckoutLinkUnknownPrice(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.service.CreateCheckoutLink(CheckoutLinkRequest{
		Kind:    models.CheckoutKindPlan,
		UserID:  1,
		PriceID: "price_unknown",
	})
	assert.Error(t, err)
	assert.Empty(t, f.oneTimeTokens.tokens)
}
