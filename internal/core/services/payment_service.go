package services

import (
	"context"
	"errors"
	"log"
	"time"

	"escolapay/internal/adapters/persistence/models"
	"escolapay/internal/adapters/persistence/repositories"
	"escolapay/internal/core/installments"
	"escolapay/internal/pkg/pagination"

	"gorm.io/gorm"
)

// Payment service errors
var (
	ErrStudentNotFound   = errors.New("student not found")
	ErrNotAStudent       = errors.New("user is not a student")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrPaymentNotPending = errors.New("payment is not pending")
)

// PaymentService handles payment intake and installment reconciliation
type PaymentService struct {
	paymentRepo repositories.PaymentRepository
	userRepo    repositories.UserRepository
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	userRepo repositories.UserRepository,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
	}
}

// GetSchedule derives a student's installment schedule from the payment
// history.
func (s *PaymentService) GetSchedule(ctx context.Context, userID uint) (*installments.Schedule, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if !user.IsStudent() {
		return nil, ErrNotAStudent
	}

	payments, err := s.paymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return installments.Build(user.TotalAmount, user.Installments, toRecords(payments))
}

// CashPaymentInput represents a cash payment submission
type CashPaymentInput struct {
	DNI                string `json:"dni" validate:"required"`
	InstallmentNumbers []int  `json:"installment_numbers" validate:"required,min=1,dive,gte=1"`
	Receipt            string `json:"receipt,omitempty"`
}

// CashPaymentResult reports what a cash submission produced
type CashPaymentResult struct {
	Payments []*models.PaymentResponse `json:"payments"`
	Amount   float64                   `json:"amount"`
	Balance  float64                   `json:"balance"`
}

// SubmitCashPayment records an admin-attested payment: one APPROVED row per
// chosen installment, then the balance update — in one transaction.
func (s *PaymentService) SubmitCashPayment(ctx context.Context, input *CashPaymentInput, adminID uint) (*CashPaymentResult, error) {
	student, err := s.userRepo.GetByDNI(ctx, input.DNI)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if !student.IsStudent() {
		return nil, ErrNotAStudent
	}

	history, err := s.paymentRepo.ListByUser(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	schedule, err := installments.Build(student.TotalAmount, student.Installments, toRecords(history))
	if err != nil {
		return nil, err
	}

	if err := schedule.Validate(input.InstallmentNumbers); err != nil {
		return nil, err
	}

	now := time.Now()
	total := schedule.AmountFor(input.InstallmentNumbers)

	rows := make([]*models.Payment, 0, len(input.InstallmentNumbers))
	for _, k := range input.InstallmentNumbers {
		number := k
		rows = append(rows, &models.Payment{
			UserID:            student.ID,
			Amount:            schedule.Installments[number-1].Amount,
			Status:            models.PaymentStatusApproved,
			Method:            models.PaymentMethodCash,
			InstallmentNumber: &number,
			Receipt:           input.Receipt,
			ReviewedAt:        &now,
			ReviewedBy:        &adminID,
		})
	}

	if err := s.paymentRepo.CreateApproved(ctx, rows, student.ID, total); err != nil {
		return nil, err
	}

	log.Printf("✅ Cash payment recorded: DNI %s, installments %v, total %.2f",
		student.DNI, input.InstallmentNumbers, total)

	// Re-read the snapshot so the response carries the updated balance
	updated, err := s.userRepo.GetByID(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.PaymentResponse, len(rows))
	for i, p := range rows {
		responses[i] = p.ToResponse()
	}

	return &CashPaymentResult{
		Payments: responses,
		Amount:   total,
		Balance:  updated.Balance,
	}, nil
}

// RejectInput represents a payment rejection
type RejectInput struct {
	Reason string `json:"reason" validate:"required"`
}

// RejectPayment marks a PENDING payment REJECTED. Terminal; the balance is
// never touched.
func (s *PaymentService) RejectPayment(ctx context.Context, paymentID uint, input *RejectInput, adminID uint) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	if payment.Status != models.PaymentStatusPending {
		return nil, ErrPaymentNotPending
	}

	now := time.Now()
	payment.Status = models.PaymentStatusRejected
	payment.RejectionReason = input.Reason
	payment.ReviewedAt = &now
	payment.ReviewedBy = &adminID

	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, err
	}

	log.Printf("✅ Payment %d rejected: %s", payment.ID, input.Reason)
	return payment, nil
}

// ListInput represents payment listing input
type ListPaymentsInput struct {
	Page   int
	Limit  int
	UserID *uint
	Status string
	Method string
}

// ListPaymentsOutput represents payment listing output
type ListPaymentsOutput struct {
	Payments   []*models.PaymentResponse `json:"payments"`
	Total      int64                     `json:"total"`
	Page       int                       `json:"page"`
	Limit      int                       `json:"limit"`
	TotalPages int                       `json:"total_pages"`
}

// ListPayments lists payments for review
func (s *PaymentService) ListPayments(ctx context.Context, input *ListPaymentsInput) (*ListPaymentsOutput, error) {
	params := pagination.Normalize(input.Page, input.Limit)

	payments, total, err := s.paymentRepo.List(ctx, repositories.PaymentFilter{
		UserID: input.UserID,
		Status: input.Status,
		Method: input.Method,
	}, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.PaymentResponse, len(payments))
	for i, p := range payments {
		responses[i] = p.ToResponse()
	}

	meta := pagination.GetMeta(params, total)

	return &ListPaymentsOutput{
		Payments:   responses,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: meta.TotalPages,
	}, nil
}

// GetPayment gets one payment
func (s *PaymentService) GetPayment(ctx context.Context, id uint) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// toRecords projects payment rows into the reconciliation rule input
func toRecords(payments []*models.Payment) []installments.PaymentRecord {
	records := make([]installments.PaymentRecord, len(payments))
	for i, p := range payments {
		records[i] = installments.PaymentRecord{
			ID:                p.ID,
			Status:            p.Status,
			InstallmentNumber: p.InstallmentNumber,
			Amount:            p.Amount,
		}
	}
	return records
}
