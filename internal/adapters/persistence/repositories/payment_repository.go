package repositories

import (
	"context"
	"time"

	"escolapay/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// paymentRepository implements PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create creates a payment row
func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// GetByID gets a payment by ID
func (r *paymentRepository) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByUser lists every payment of one student, oldest first
func (r *paymentRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submitted_at").
		Find(&payments).Error
	return payments, err
}

// List lists payments with filters and pagination, newest first
func (r *paymentRepository) List(ctx context.Context, filter PaymentFilter, offset, limit int) ([]*models.Payment, int64, error) {
	var payments []*models.Payment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Payment{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("User").
		Order("submitted_at DESC").
		Offset(offset).Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// ListByExternalReference lists the payments of one checkout session
func (r *paymentRepository) ListByExternalReference(ctx context.Context, ref string) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("external_reference = ?", ref).
		Find(&payments).Error
	return payments, err
}

// Update updates a payment row
func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

// CountByUser counts the payments referencing a student
func (r *paymentRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// CreateApproved inserts APPROVED payment rows and applies the balance
// update in one transaction: paid_amount grows and balance shrinks by the
// same total, so balance == total_amount - paid_amount keeps holding.
func (r *paymentRepository) CreateApproved(ctx context.Context, payments []*models.Payment, userID uint, total float64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range payments {
			if err := tx.Create(p).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"paid_amount": gorm.Expr("paid_amount + ?", total),
				"balance":     gorm.Expr("balance - ?", total),
			}).Error
	})
}

// ApproveByExternalReference settles a checkout session. Only PENDING rows
// transition, which makes repeated gateway notifications idempotent.
func (r *paymentRepository) ApproveByExternalReference(ctx context.Context, ref string, reviewedAt time.Time) (float64, error) {
	var approved float64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payments []*models.Payment
		if err := tx.Where("external_reference = ? AND status = ?", ref, models.PaymentStatusPending).
			Find(&payments).Error; err != nil {
			return err
		}
		if len(payments) == 0 {
			return nil
		}

		userID := payments[0].UserID
		for _, p := range payments {
			p.Status = models.PaymentStatusApproved
			p.ReviewedAt = &reviewedAt
			if err := tx.Save(p).Error; err != nil {
				return err
			}
			approved += p.Amount
		}

		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"paid_amount": gorm.Expr("paid_amount + ?", approved),
				"balance":     gorm.Expr("balance - ?", approved),
			}).Error
	})
	if err != nil {
		return 0, err
	}

	return approved, nil
}

// RejectByExternalReference marks a session's pending payments REJECTED.
func (r *paymentRepository) RejectByExternalReference(ctx context.Context, ref, reason string, reviewedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("external_reference = ? AND status = ?", ref, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":           models.PaymentStatusRejected,
			"rejection_reason": reason,
			"reviewed_at":      reviewedAt,
		}).Error
}
