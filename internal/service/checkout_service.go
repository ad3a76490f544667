package service

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/plagiacheck/plagiacheck-backend/internal/config"
	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"github.com/plagiacheck/plagiacheck-backend/pkg/payment"
	"github.com/plagiacheck/plagiacheck-backend/pkg/utils"
	"github.com/stripe/stripe-go/v74"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Doğrulama tokeninin geçerlilik süresi checkout türüne göre değişir.
// Plan satın alma akışı 20 dakika, token paketi 6 dakika kullanıyor.
const (
	PlanTokenWindow      = 20 * time.Minute
	TokenPackTokenWindow = 6 * time.Minute
)

var (
	ErrTokenExpired = errors.New("verification token expired")
	ErrTokenInvalid = errors.New("verification token invalid")
	ErrTokenUsed    = errors.New("verification token already used")
)

type CheckoutService struct {
	gateway         PaymentGateway
	users           UserStore
	plans           PlanStore
	packages        PackageStore
	payments        PaymentStore
	oneTimeTokens   OneTimeTokenStore
	purchasedTokens PurchasedTokenStore
	vouchers        VoucherStore
	affiliates      AffiliateStore
	opLog           OperationLogStore
	cfg             *config.Config
	logger          *zap.Logger
}

func NewCheckoutService(
	gateway PaymentGateway,
	users UserStore,
	plans PlanStore,
	packages PackageStore,
	payments PaymentStore,
	oneTimeTokens OneTimeTokenStore,
	purchasedTokens PurchasedTokenStore,
	vouchers VoucherStore,
	affiliates AffiliateStore,
	opLog OperationLogStore,
	cfg *config.Config,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		gateway:         gateway,
		users:           users,
		plans:           plans,
		packages:        packages,
		payments:        payments,
		oneTimeTokens:   oneTimeTokens,
		purchasedTokens: purchasedTokens,
		vouchers:        vouchers,
		affiliates:      affiliates,
		opLog:           opLog,
		cfg:             cfg,
		logger:          logger,
	}
}

type CheckoutLinkRequest struct {
	Kind     models.CheckoutKind
	UserID   uint
	PriceID  string
	Email    string
	Quantity int64
	Locale   string
}

type RedirectParams struct {
	Kind      models.CheckoutKind
	UserID    uint
	Token     string
	IssuedAt  int64 // millisecond timestamp, linkteki ts parametresi
	SessionID string
	PlanName  string
	Locale    string
}

func tokenWindow(kind models.CheckoutKind) time.Duration {
	if kind == models.CheckoutKindTokens {
		return TokenPackTokenWindow
	}
	return PlanTokenWindow
}

// CreateCheckoutLink tek kullanımlık doğrulama tokeni üretir, kaydeder ve
// Stripe hosted checkout session'ı oluşturur. Dönen URL'e redirect edilir.
func (s *CheckoutService) CreateCheckoutLink(req CheckoutLinkRequest) (*models.CheckoutSession, error) {
	user, err := s.users.GetByID(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	email := req.Email
	if email == "" {
		email = user.Email
	}

	planName := ""
	if req.Kind == models.CheckoutKindPlan {
		plan, err := s.plans.GetByPriceID(req.PriceID)
		if err != nil {
			return nil, fmt.Errorf("unknown price: %w", err)
		}
		planName = plan.Name
	}

	issuedAt := time.Now().UnixMilli()
	token := utils.SignCheckoutToken(req.UserID, issuedAt, s.cfg.APISecret)

	if err := s.oneTimeTokens.Create(&models.OneTimeToken{
		Token:  token,
		UserID: req.UserID,
	}); err != nil {
		return nil, fmt.Errorf("failed to store verification token: %w", err)
	}

	locale := req.Locale
	if locale == "" {
		locale = "en"
	}

	query := url.Values{}
	query.Set("kind", string(req.Kind))
	query.Set("userId", strconv.FormatUint(uint64(req.UserID), 10))
	query.Set("token", token)
	query.Set("ts", strconv.FormatInt(issuedAt, 10))
	query.Set("plan", planName)
	query.Set("locale", locale)

	// {CHECKOUT_SESSION_ID} placeholder'ı Stripe tarafından doldurulur,
	// o yüzden encode edilmeden sona ekleniyor.
	successURL := fmt.Sprintf("%s/api/payments/success?%s&session_id={CHECKOUT_SESSION_ID}",
		s.cfg.APIBaseURL, query.Encode())
	cancelURL := fmt.Sprintf("%s/api/payments/cancelled?%s", s.cfg.APIBaseURL, query.Encode())

	mode := string(stripe.CheckoutSessionModeSubscription)
	if req.Kind == models.CheckoutKindTokens {
		mode = string(stripe.CheckoutSessionModePayment)
	}

	metadata := map[string]string{
		"userId": strconv.FormatUint(uint64(req.UserID), 10),
		"plan":   planName,
	}
	if user.ReferredBy != "" {
		metadata["referrer"] = user.ReferredBy
	}
	if req.Kind == models.CheckoutKindTokens {
		metadata["tokens"] = strconv.FormatInt(req.Quantity, 10)
	}

	sess, err := s.gateway.CreateCheckoutSession(payment.CheckoutParams{
		Email:      email,
		PriceID:    req.PriceID,
		Quantity:   req.Quantity,
		Mode:       mode,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Metadata:   metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &models.CheckoutSession{
		ID:  sess.ID,
		URL: sess.URL,
	}, nil
}

// HandleSuccessRedirect checkout sonrası dönüşü doğrular ve ödemeyi işler.
// Dönen URL kullanıcının gönderileceği sayfadır; hata durumunda fallback
// sayfası döner. Token tüketildikten sonra oluşan adım hataları geri
// alınmaz, sadece loglanır ve akış kesilir.
func (s *CheckoutService) HandleSuccessRedirect(p RedirectParams) (string, error) {
	fallback := s.fallbackURL(p.Locale)
	successPage := fmt.Sprintf("%s/%s/payment/success", s.cfg.AppURL, s.localeOrDefault(p.Locale))

	if err := s.verifyToken(p); err != nil {
		return fallback, err
	}

	consumed, err := s.oneTimeTokens.Consume(p.Token, p.UserID)
	if err != nil {
		return fallback, fmt.Errorf("failed to consume verification token: %w", err)
	}
	if !consumed {
		return fallback, ErrTokenUsed
	}

	sess, err := s.gateway.GetCheckoutSession(p.SessionID)
	if err != nil {
		return fallback, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	paymentID := sessionPaymentID(sess)
	if paymentID == "" {
		return fallback, errors.New("checkout session has no payment identifier")
	}

	// Idempotency: aynı ödeme daha önce işlendiyse hiçbir şey yapma
	exists, err := s.payments.Exists(paymentID)
	if err != nil {
		return fallback, fmt.Errorf("payment lookup failed: %w", err)
	}
	if exists {
		return successPage, nil
	}

	paymentType := models.PaymentTypeSubscription
	if p.Kind == models.CheckoutKindTokens {
		paymentType = models.PaymentTypeOneTime
	}

	referrer := sess.Metadata["referrer"]

	err = s.payments.Create(&models.Payment{
		StripePaymentID: paymentID,
		UserID:          p.UserID,
		Amount:          formatAmount(sess.AmountTotal),
		Currency:        string(sess.Currency),
		Status:          "succeeded",
		Type:            paymentType,
		Processed:       true,
		ReferrerCode:    referrer,
	})
	if err != nil {
		// Var olan primary key'e çarptıysak yarışı kaybetmişiz demektir,
		// ödeme zaten işlendi.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return successPage, nil
		}
		return fallback, fmt.Errorf("failed to record payment: %w", err)
	}

	if p.Kind == models.CheckoutKindTokens {
		if err := s.applyTokenPurchase(p, sess, paymentID); err != nil {
			s.logger.Error("token purchase reconciliation failed",
				zap.String("payment_id", paymentID), zap.Error(err))
			return fallback, err
		}
	} else {
		if err := s.applyPlanPurchase(p, sess, paymentID); err != nil {
			s.logger.Error("plan purchase reconciliation failed",
				zap.String("payment_id", paymentID), zap.Error(err))
			return fallback, err
		}
	}

	return successPage, nil
}

// HandleCancelRedirect tokeni tüketir ve fiyatlandırma sayfasına yönlendirir.
// Başka bir state değişikliği yapmaz.
func (s *CheckoutService) HandleCancelRedirect(p RedirectParams) (string, error) {
	fallback := s.fallbackURL(p.Locale)
	pricingPage := fmt.Sprintf("%s/%s/pricing", s.cfg.AppURL, s.localeOrDefault(p.Locale))

	if err := s.verifyToken(p); err != nil {
		return fallback, err
	}

	consumed, err := s.oneTimeTokens.Consume(p.Token, p.UserID)
	if err != nil {
		return fallback, fmt.Errorf("failed to consume verification token: %w", err)
	}
	if !consumed {
		return fallback, ErrTokenUsed
	}

	return pricingPage, nil
}

func (s *CheckoutService) verifyToken(p RedirectParams) error {
	if time.Since(time.UnixMilli(p.IssuedAt)) > tokenWindow(p.Kind) {
		return ErrTokenExpired
	}
	if !utils.VerifyCheckoutToken(p.Token, p.UserID, p.IssuedAt, s.cfg.APISecret) {
		return ErrTokenInvalid
	}
	return nil
}

func (s *CheckoutService) applyPlanPurchase(p RedirectParams, sess *stripe.CheckoutSession, paymentID string) error {
	plan, err := s.plans.GetByName(p.PlanName)
	if err != nil {
		return fmt.Errorf("unknown plan %q: %w", p.PlanName, err)
	}

	subscriptionID := ""
	if sess.Subscription != nil {
		subscriptionID = sess.Subscription.ID
	}

	now := time.Now()
	pkg, err := s.packages.GetByUserID(p.UserID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("package lookup failed: %w", err)
		}
		pkg = &models.Package{
			UserID:               p.UserID,
			PlanName:             plan.Name,
			Status:               models.PackageStatusActive,
			StartedAt:            now,
			ExpiresAt:            utils.AddCalendarMonth(now),
			StripeSubscriptionID: subscriptionID,
		}
		if err := s.packages.Create(pkg); err != nil {
			return fmt.Errorf("failed to create package: %w", err)
		}
	} else {
		pkg.PlanName = plan.Name
		pkg.Status = models.PackageStatusActive
		pkg.StartedAt = now
		pkg.ExpiresAt = utils.AddCalendarMonth(now)
		pkg.StripeSubscriptionID = subscriptionID
		pkg.FailedPaymentCount = 0
		if err := s.packages.Update(pkg); err != nil {
			return fmt.Errorf("failed to update package: %w", err)
		}
	}

	if err := s.purchasedTokens.Credit(p.UserID, plan.TokenAllocation); err != nil {
		return fmt.Errorf("failed to credit tokens: %w", err)
	}

	// İlk satın almada otomatik üretilen tek seferlik kupon devre dışı
	// bırakılır. Burası opsiyonel adım, hatası akışı kesmez.
	s.retireFirstOffer(p.UserID)

	s.accrueAffiliate(sess, paymentID)

	s.appendLog(p.UserID, "payment.succeeded", "payment", paymentID,
		fmt.Sprintf("plan %s, %d tokens", plan.Name, plan.TokenAllocation))

	return nil
}

func (s *CheckoutService) applyTokenPurchase(p RedirectParams, sess *stripe.CheckoutSession, paymentID string) error {
	quantity, err := strconv.Atoi(sess.Metadata["tokens"])
	if err != nil || quantity <= 0 {
		return fmt.Errorf("invalid token quantity in session metadata: %q", sess.Metadata["tokens"])
	}

	if err := s.purchasedTokens.Credit(p.UserID, quantity); err != nil {
		return fmt.Errorf("failed to credit tokens: %w", err)
	}

	s.accrueAffiliate(sess, paymentID)

	s.appendLog(p.UserID, "payment.succeeded", "payment", paymentID,
		fmt.Sprintf("%d tokens purchased", quantity))

	return nil
}

func (s *CheckoutService) retireFirstOffer(userID uint) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		s.logger.Warn("first offer check failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	if user.FirstOfferUsed {
		return
	}

	voucher, err := s.vouchers.GetActiveOneTimeByUser(userID)
	if err == nil {
		if err := s.vouchers.Disable(voucher.ID); err != nil {
			s.logger.Warn("failed to disable voucher",
				zap.Uint("voucher_id", voucher.ID), zap.Error(err))
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("voucher lookup failed", zap.Uint("user_id", userID), zap.Error(err))
	}

	user.FirstOfferUsed = true
	if err := s.users.Update(user); err != nil {
		s.logger.Warn("failed to mark first offer used",
			zap.Uint("user_id", userID), zap.Error(err))
	}
}

func (s *CheckoutService) accrueAffiliate(sess *stripe.CheckoutSession, paymentID string) {
	code := sess.Metadata["referrer"]
	if code == "" {
		return
	}

	affiliate, err := s.affiliates.GetByCode(code)
	if err != nil {
		s.logger.Warn("affiliate lookup failed", zap.String("code", code), zap.Error(err))
		return
	}

	commission := float64(sess.AmountTotal) / 100 * affiliate.CommissionPct
	if err := s.affiliates.Accrue(code, commission); err != nil {
		s.logger.Warn("failed to accrue affiliate commission",
			zap.String("code", code), zap.String("payment_id", paymentID), zap.Error(err))
	}
}

func (s *CheckoutService) appendLog(userID uint, action, entity, entityID, detail string) {
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

func (s *CheckoutService) localeOrDefault(locale string) string {
	if locale == "" {
		return "en"
	}
	return locale
}

func (s *CheckoutService) fallbackURL(locale string) string {
	return fmt.Sprintf("%s/%s", s.cfg.AppURL, s.localeOrDefault(locale))
}

func sessionPaymentID(sess *stripe.CheckoutSession) string {
	if sess.Subscription != nil && sess.Subscription.LatestInvoice != nil {
		return sess.Subscription.LatestInvoice.ID
	}
	if sess.PaymentIntent != nil {
		return sess.PaymentIntent.ID
	}
	return ""
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100)
}
