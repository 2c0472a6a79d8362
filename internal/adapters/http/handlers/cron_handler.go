package handlers

import (
	"errors"

	"escolapay/internal/core/services"
	"escolapay/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CronHandler exposes the externally-triggered scheduled tasks. The route
// is guarded by the shared-secret middleware, not by user auth.
type CronHandler struct {
	lateFeeService *services.LateFeeService
}

// NewCronHandler creates a new cron handler
func NewCronHandler(lateFeeService *services.LateFeeService) *CronHandler {
	return &CronHandler{lateFeeService: lateFeeService}
}

// ApplyLateFees runs the late fee stored procedure
// @Summary Apply late fees
// @Description Trigger the database-side late fee procedure. Requires the
// @Description cron shared secret as a bearer token.
// @Tags Cron
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /cron/apply-late-fees [post]
func (h *CronHandler) ApplyLateFees(c *fiber.Ctx) error {
	result, err := h.lateFeeService.Run(c.Context())
	if err != nil {
		if errors.Is(err, services.ErrLateFeeSettings) {
			return response.InternalServerError(c, "Late fee settings are incomplete")
		}
		return response.InternalServerError(c, "Late fee procedure failed")
	}

	return response.Success(c, "Late fees applied", result)
}
