package repositories

import (
	"context"

	"escolapay/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// accountRepository implements AccountRepository interface
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create creates a credential record
func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// GetByUserID gets the credential record for a user
func (r *accountRepository) GetByUserID(ctx context.Context, userID uint) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Update updates a credential record
func (r *accountRepository) Update(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

// ExistsByUserID checks if a user already has a credential record
func (r *accountRepository) ExistsByUserID(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Account{}).Where("user_id = ?", userID).Count(&count).Error
	return count > 0, err
}
