package handlers

import (
	"errors"

	"escolapay/internal/core/installments"
	"escolapay/internal/core/services"
	"escolapay/internal/pkg/response"
	"escolapay/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler handles online payment endpoints: the student-facing
// session creation and the gateway's server-to-server webhook.
type CheckoutHandler struct {
	checkoutService *services.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// Create opens a hosted checkout session
// @Summary Create checkout session
// @Description Select installments and get a gateway redirect. The payments
// @Description stay PENDING until the webhook confirms.
// @Tags Checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CheckoutInput true "Installment numbers"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /dashboard/checkout [post]
func (h *CheckoutHandler) Create(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.CheckoutInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if fields := validate.Struct(req); fields != nil {
		return response.ValidationFailed(c, fields)
	}

	session, err := h.checkoutService.CreateCheckout(c.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrGatewayNotConfigured):
			return response.Error(c, fiber.StatusServiceUnavailable, "Online payments are not available")
		case errors.Is(err, installments.ErrAlreadyPaid):
			return response.Conflict(c, "Installment already paid")
		case errors.Is(err, installments.ErrInvalidNumber),
			errors.Is(err, installments.ErrDuplicateSelection),
			errors.Is(err, installments.ErrNoInstallments):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to create checkout session")
		}
	}

	return response.Created(c, "Checkout session created", session)
}

// Webhook receives gateway payment notifications
// @Summary Gateway webhook
// @Description Server-to-server payment notification. Settlements approve
// @Description the session's pending payments; terminal failures reject
// @Description them. Safe to replay.
// @Tags Checkout
// @Accept json
// @Produce json
// @Param body body services.NotificationInput true "Gateway notification"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /webhooks/payments [post]
func (h *CheckoutHandler) Webhook(c *fiber.Ctx) error {
	var req services.NotificationInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid notification payload")
	}
	if fields := validate.Struct(req); fields != nil {
		return response.ValidationFailed(c, fields)
	}

	if err := h.checkoutService.HandleNotification(c.Context(), &req); err != nil {
		if errors.Is(err, services.ErrUnknownReference) {
			return response.NotFound(c, "Unknown order reference")
		}
		return response.InternalServerError(c, "Failed to process notification")
	}

	return response.Success(c, "Notification processed", nil)
}
