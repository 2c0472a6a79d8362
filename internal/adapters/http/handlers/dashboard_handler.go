package handlers

import (
	"errors"

	"escolapay/internal/core/services"
	"escolapay/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles the student home view and the admin overview
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Student returns the logged-in student's dashboard
// @Summary Student dashboard
// @Description Financial snapshot, derived installment schedule and payment
// @Description history in one call
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /dashboard [get]
func (h *DashboardHandler) Student(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	dashboard, err := h.dashboardService.GetStudentDashboard(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrStudentNotFound) || errors.Is(err, services.ErrNotAStudent) {
			return response.NotFound(c, "Student not found")
		}
		return response.InternalServerError(c, "Failed to load dashboard")
	}

	return response.Success(c, "Dashboard retrieved successfully", dashboard)
}

// AdminStats returns the collections overview
// @Summary Admin statistics
// @Description Aggregate billing, collection and payment-status numbers
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/stats [get]
func (h *DashboardHandler) AdminStats(c *fiber.Ctx) error {
	stats, err := h.dashboardService.GetAdminStats(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to compute statistics")
	}

	return response.Success(c, "Statistics retrieved successfully", stats)
}
