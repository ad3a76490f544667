package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/plagiacheck/plagiacheck-backend/internal/models"
	"github.com/plagiacheck/plagiacheck-backend/internal/service"
)

type PlanHandler struct {
	planService *service.PlanService
}

func NewPlanHandler(planService *service.PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}

func (h *PlanHandler) GetPlans(c *fiber.Ctx) error {
	plans, err := h.planService.GetActivePlans()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(plans, ""))
}
