package service

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"github.com/plagiacheck/plagiacheck-backend/internal/repository"
	"github.com/plagiacheck/plagiacheck-backend/pkg/bcrypt"
	"github.com/plagiacheck/plagiacheck-backend/pkg/captcha"
	"github.com/plagiacheck/plagiacheck-backend/pkg/email"
	jwtPkg "github.com/plagiacheck/plagiacheck-backend/pkg/jwt"
	"github.com/plagiacheck/plagiacheck-backend/pkg/utils"
	"go.uber.org/zap"
)

const (
	TokenExpiryReset = 15 * time.Minute

	// Yeni hesaplara verilen tek seferlik indirim kuponu
	firstOfferDiscountPct = 20
)

type AuthService struct {
	userRepo     *repository.UserRepository
	voucherRepo  *repository.VoucherRepository
	emailService *email.EmailService
	logger       *zap.Logger
	jwtSecret    []byte
}

func NewAuthService(userRepo *repository.UserRepository, voucherRepo *repository.VoucherRepository, emailService *email.EmailService, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		voucherRepo:  voucherRepo,
		emailService: emailService,
		logger:       logger,
		jwtSecret:    []byte(os.Getenv("JWT_SECRET")),
	}
}

func (s *AuthService) Register(req models.RegisterRequest) (*models.AuthResponse, error) {
	ok, err := captcha.VerifyTurnstile(req.TurnstileToken)
	if err != nil || !ok {
		return nil, errors.New("captcha verification failed")
	}

	exists, err := s.userRepo.EmailExists(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.New("email already exists")
	}

	hashedPassword, err := bcrypt.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FullName:   req.FullName,
		Email:      req.Email,
		Password:   hashedPassword,
		ReferredBy: req.Referrer,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	// İlk satın almada kullanılacak otomatik kupon
	if err := s.voucherRepo.Create(&models.Voucher{
		Code:        utils.GenerateRandomString(10),
		UserID:      user.ID,
		DiscountPct: firstOfferDiscountPct,
		OneTime:     true,
	}); err != nil {
		s.logger.Warn("failed to create welcome voucher",
			zap.Uint("user_id", user.ID), zap.Error(err))
	}

	token, err := jwtPkg.GenerateToken(user.Email, user.ID)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := s.emailService.SendWelcomeEmail(user.Email, user.FullName); err != nil {
			s.logger.Warn("failed to send welcome email",
				zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}()

	return &models.AuthResponse{
		Token: token,
		User:  *user,
	}, nil
}

func (s *AuthService) Login(req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}

	if err := bcrypt.ComparePassword(user.Password, req.Password); err != nil {
		return nil, errors.New("invalid email or password")
	}

	token, err := jwtPkg.GenerateToken(user.Email, user.ID)
	if err != nil {
		return nil, fmt.Errorf("token generation failed: %v", err)
	}

	return &models.AuthResponse{
		Token: token,
		User:  *user,
	}, nil
}

func (s *AuthService) ForgotPassword(emailAddr string) error {
	user, err := s.userRepo.GetByEmail(emailAddr)
	if err != nil {
		return nil // Güvenlik için hata dönme
	}

	claims := jwt.MapClaims{
		"sub": user.Email,
		"exp": time.Now().Add(TokenExpiryReset).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	resetToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return err
	}

	return s.emailService.SendPasswordResetEmail(user.Email, resetToken)
}

func (s *AuthService) ResetPassword(token string, newPassword string) error {
	claims, err := jwtPkg.ValidateToken(token)
	if err != nil {
		return errors.New("invalid or expired token")
	}

	emailAddr, ok := claims["sub"].(string)
	if !ok {
		return errors.New("invalid token claims")
	}

	user, err := s.userRepo.GetByEmail(emailAddr)
	if err != nil {
		return err
	}

	hashedPassword, err := bcrypt.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.userRepo.UpdatePassword(user.ID, hashedPassword)
}
