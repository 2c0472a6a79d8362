package services

import (
	"context"

	"escolapay/internal/adapters/persistence/models"
	"escolapay/internal/adapters/persistence/repositories"
	"escolapay/internal/core/installments"

	"gorm.io/gorm"
)

// DashboardService aggregates the student home view and the admin overview
type DashboardService struct {
	db          *gorm.DB
	userRepo    repositories.UserRepository
	paymentRepo repositories.PaymentRepository
	paymentSvc  *PaymentService
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	db *gorm.DB,
	userRepo repositories.UserRepository,
	paymentRepo repositories.PaymentRepository,
	paymentSvc *PaymentService,
) *DashboardService {
	return &DashboardService{
		db:          db,
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		paymentSvc:  paymentSvc,
	}
}

// StudentDashboard is everything the student home screen needs in one call
type StudentDashboard struct {
	Student  *models.UserResponse      `json:"student"`
	Schedule *installments.Schedule    `json:"schedule"`
	Payments []*models.PaymentResponse `json:"payments"`
}

// GetStudentDashboard assembles the financial snapshot, the derived
// installment schedule and the payment history for one student.
func (s *DashboardService) GetStudentDashboard(ctx context.Context, userID uint) (*StudentDashboard, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrStudentNotFound
	}
	if !user.IsStudent() {
		return nil, ErrNotAStudent
	}

	schedule, err := s.paymentSvc.GetSchedule(ctx, userID)
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.PaymentResponse, len(payments))
	for i, p := range payments {
		responses[i] = p.ToResponse()
	}

	return &StudentDashboard{
		Student:  user.ToResponse(),
		Schedule: schedule,
		Payments: responses,
	}, nil
}

// AdminStats is the collections overview for the admin panel
type AdminStats struct {
	TotalStudents    int64   `json:"total_students"`
	TotalSchools     int64   `json:"total_schools"`
	TotalProducts    int64   `json:"total_products"`
	TotalBilled      float64 `json:"total_billed"`
	TotalCollected   float64 `json:"total_collected"`
	TotalOutstanding float64 `json:"total_outstanding"`
	PendingPayments  int64   `json:"pending_payments"`
	ApprovedPayments int64   `json:"approved_payments"`
	RejectedPayments int64   `json:"rejected_payments"`
	StudentsUpToDate int64   `json:"students_up_to_date"`
	StudentsWithDebt int64   `json:"students_with_debt"`
}

// GetAdminStats computes the aggregates with direct queries; the numbers
// are read-only and per-request, no caching.
func (s *DashboardService) GetAdminStats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleStudent).
		Count(&stats.TotalStudents).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.School{}).Count(&stats.TotalSchools).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}

	type moneyRow struct {
		Billed      float64
		Collected   float64
		Outstanding float64
	}
	var money moneyRow
	if err := db.Model(&models.User{}).
		Select("COALESCE(SUM(total_amount),0) AS billed, COALESCE(SUM(paid_amount),0) AS collected, COALESCE(SUM(balance),0) AS outstanding").
		Where("role = ?", models.RoleStudent).
		Scan(&money).Error; err != nil {
		return nil, err
	}
	stats.TotalBilled = money.Billed
	stats.TotalCollected = money.Collected
	stats.TotalOutstanding = money.Outstanding

	statusCounts := []struct {
		Status string
		N      int64
	}{}
	if err := db.Model(&models.Payment{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}
	for _, row := range statusCounts {
		switch row.Status {
		case models.PaymentStatusPending:
			stats.PendingPayments = row.N
		case models.PaymentStatusApproved:
			stats.ApprovedPayments = row.N
		case models.PaymentStatusRejected:
			stats.RejectedPayments = row.N
		}
	}

	if err := db.Model(&models.User{}).
		Where("role = ? AND balance <= 0", models.RoleStudent).
		Count(&stats.StudentsUpToDate).Error; err != nil {
		return nil, err
	}
	stats.StudentsWithDebt = stats.TotalStudents - stats.StudentsUpToDate

	return stats, nil
}
