package handlers

import (
	"errors"

	"escolapay/internal/core/services"
	"escolapay/internal/pkg/response"
	"escolapay/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
)

// SettingsHandler handles system settings endpoints
type SettingsHandler struct {
	settingsService *services.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// List lists all settings
// @Summary List settings
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/settings [get]
func (h *SettingsHandler) List(c *fiber.Ctx) error {
	settings, err := h.settingsService.ListSettings(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list settings")
	}
	return response.Success(c, "Settings retrieved successfully", settings)
}

// Update writes one setting
// @Summary Update setting
// @Description Write a known setting; the value is validated per key
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param key path string true "Setting key"
// @Param body body services.UpdateSettingInput true "New value"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/settings/{key} [put]
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	key := c.Params("key")

	var req services.UpdateSettingInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if fields := validate.Struct(req); fields != nil {
		return response.ValidationFailed(c, fields)
	}

	if err := h.settingsService.UpdateSetting(c.Context(), key, &req); err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownSetting):
			return response.NotFound(c, "Unknown setting key")
		case errors.Is(err, services.ErrInvalidSettingValue):
			return response.BadRequest(c, "Invalid value for setting "+key)
		default:
			return response.InternalServerError(c, "Failed to update setting")
		}
	}

	return response.Success(c, "Setting updated successfully", nil)
}
