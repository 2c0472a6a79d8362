package handlers

import (
	"errors"
	"strconv"

	"escolapay/internal/core/installments"
	"escolapay/internal/core/services"
	"escolapay/internal/pkg/response"
	"escolapay/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles payment review endpoints
type PaymentHandler struct {
	paymentService *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// List lists payments
// @Summary List payments
// @Description List payments with pagination and filters
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param user_id query int false "Filter by student"
// @Param status query string false "PENDING | APPROVED | REJECTED"
// @Param method query string false "CASH | GATEWAY"
// @Success 200 {object} response.Response
// @Router /admin/payments [get]
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	input := &services.ListPaymentsInput{
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
		Status: c.Query("status"),
		Method: c.Query("method"),
	}
	if v := c.QueryInt("user_id", 0); v > 0 {
		id := uint(v)
		input.UserID = &id
	}

	out, err := h.paymentService.ListPayments(c.Context(), input)
	if err != nil {
		return response.InternalServerError(c, "Failed to list payments")
	}

	return response.Success(c, "Payments retrieved successfully", out)
}

// Get fetches one payment
// @Summary Get payment
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/payments/{id} [get]
func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid payment ID")
	}

	payment, err := h.paymentService.GetPayment(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return response.NotFound(c, "Payment not found")
		}
		return response.InternalServerError(c, "Failed to get payment")
	}

	return response.Success(c, "Payment retrieved successfully", payment.ToResponse())
}

// SubmitCash records an admin-attested cash payment
// @Summary Submit cash payment
// @Description Record a cash payment the admin attests to. The payment is
// @Description approved immediately and the balance updated in the same
// @Description transaction.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CashPaymentInput true "DNI and installment numbers"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/payments/cash [post]
func (h *PaymentHandler) SubmitCash(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.CashPaymentInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if fields := validate.Struct(req); fields != nil {
		return response.ValidationFailed(c, fields)
	}

	result, err := h.paymentService.SubmitCashPayment(c.Context(), &req, adminID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStudentNotFound):
			return response.NotFound(c, "Student not found")
		case errors.Is(err, installments.ErrAlreadyPaid):
			return response.Conflict(c, "Installment already paid")
		case errors.Is(err, installments.ErrInvalidNumber),
			errors.Is(err, installments.ErrDuplicateSelection),
			errors.Is(err, installments.ErrNoInstallments):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to record payment")
		}
	}

	return response.Created(c, "Cash payment recorded", result)
}

// Reject marks a pending payment rejected
// @Summary Reject payment
// @Description Reject a PENDING payment with a reason. Terminal; the balance
// @Description is never touched.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Param body body services.RejectInput true "Rejection reason"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/payments/{id}/reject [post]
func (h *PaymentHandler) Reject(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid payment ID")
	}

	var req services.RejectInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if fields := validate.Struct(req); fields != nil {
		return response.ValidationFailed(c, fields)
	}

	payment, err := h.paymentService.RejectPayment(c.Context(), uint(id), &req, adminID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			return response.NotFound(c, "Payment not found")
		case errors.Is(err, services.ErrPaymentNotPending):
			return response.Conflict(c, "Payment is not pending")
		default:
			return response.InternalServerError(c, "Failed to reject payment")
		}
	}

	return response.Success(c, "Payment rejected", payment.ToResponse())
}

// GetStudentSchedule derives a student's installment schedule
// @Summary Get student schedule
// @Description Derive the installment schedule for one student
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/students/{id}/schedule [get]
func (h *PaymentHandler) GetStudentSchedule(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	schedule, err := h.paymentService.GetSchedule(c.Context(), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStudentNotFound), errors.Is(err, services.ErrNotAStudent):
			return response.NotFound(c, "Student not found")
		default:
			return response.InternalServerError(c, "Failed to derive schedule")
		}
	}

	return response.Success(c, "Schedule retrieved successfully", schedule)
}
