package service

import (
	"errors"

	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"github.com/plagiacheck/plagiacheck-backend/internal/repository"
	"gorm.io/gorm"
)

type UserService struct {
	userRepo    *repository.UserRepository
	tokenRepo   *repository.PurchasedTokenRepository
	packageRepo *repository.PackageRepository
	opLogRepo   *repository.OperationLogRepository
}

func NewUserService(userRepo *repository.UserRepository, tokenRepo *repository.PurchasedTokenRepository, packageRepo *repository.PackageRepository, opLogRepo *repository.OperationLogRepository) *UserService {
	return &UserService{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		packageRepo: packageRepo,
		opLogRepo:   opLogRepo,
	}
}

func (s *UserService) GetProfile(userID uint) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}

func (s *UserService) UpdateProfile(userID uint, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	user.FullName = req.FullName
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetTokenBalance bakiye satırı henüz oluşmamışsa 0 döner.
func (s *UserService) GetTokenBalance(userID uint) (int, error) {
	tokens, err := s.tokenRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return tokens.Balance, nil
}

func (s *UserService) GetPackage(userID uint) (*models.Package, error) {
	return s.packageRepo.GetByUserID(userID)
}

func (s *UserService) GetOperations(userID uint) ([]models.OperationLog, error) {
	return s.opLogRepo.ListByUser(userID)
}
