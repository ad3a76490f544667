package service

import (
	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"github.com/plagiacheck/plagiacheck-backend/internal/repository"
)

type PlanService struct {
	planRepo *repository.PlanRepository
}

func NewPlanService(planRepo *repository.PlanRepository) *PlanService {
	return &PlanService{
		planRepo: planRepo,
	}
}

func (s *PlanService) GetActivePlans() ([]models.Plan, error) {
	return s.planRepo.GetAllActive()
}
