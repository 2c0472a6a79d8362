package repositories

import (
	"context"
	"time"

	"escolapay/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByDNI(ctx context.Context, dni string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter StudentFilter, offset, limit int) ([]*models.User, int64, error)
	ExistsByDNI(ctx context.Context, dni string) (bool, error)
	CountBySchool(ctx context.Context, schoolID uint) (int64, error)
	CountByDivision(ctx context.Context, divisionID uint) (int64, error)
	CountByProduct(ctx context.Context, productID uint) (int64, error)
}

// StudentFilter narrows student listings
type StudentFilter struct {
	Role             string
	SchoolDivisionID *uint
	ProductID        *uint
	Search           string // matches dni or last name
}

// AccountRepository defines credential record repository interface
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByUserID(ctx context.Context, userID uint) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	ExistsByUserID(ctx context.Context, userID uint) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// SchoolRepository defines school/division repository interface
type SchoolRepository interface {
	Create(ctx context.Context, school *models.School) error
	GetByID(ctx context.Context, id uint) (*models.School, error)
	GetByName(ctx context.Context, name string) (*models.School, error)
	List(ctx context.Context) ([]*models.School, error)
	Update(ctx context.Context, school *models.School) error
	Delete(ctx context.Context, id uint) error
	ListDivisions(ctx context.Context, schoolID uint) ([]*models.SchoolDivision, error)
	GetDivision(ctx context.Context, schoolID uint, division string, year int) (*models.SchoolDivision, error)
	GetDivisionByID(ctx context.Context, id uint) (*models.SchoolDivision, error)
	CreateDivision(ctx context.Context, division *models.SchoolDivision) error
}

// ProductRepository defines product repository interface
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
	// UpdatePriceAndRecalculate sets the new current price and, in the same
	// transaction, scales every referencing student's total by the
	// recalculation percentage and rebalances (balance = total - paid).
	UpdatePriceAndRecalculate(ctx context.Context, productID uint, newPrice, recalcPct float64) (int64, error)
}

// PaymentFilter narrows payment listings
type PaymentFilter struct {
	UserID *uint
	Status string
	Method string
}

// PaymentRepository defines payment repository interface
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uint) (*models.Payment, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Payment, error)
	List(ctx context.Context, filter PaymentFilter, offset, limit int) ([]*models.Payment, int64, error)
	ListByExternalReference(ctx context.Context, ref string) ([]*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
	CountByUser(ctx context.Context, userID uint) (int64, error)
	// CreateApproved inserts the given APPROVED payment rows and increments
	// the student's paid amount / decrements the balance by their sum, all
	// in one transaction.
	CreateApproved(ctx context.Context, payments []*models.Payment, userID uint, total float64) error
	// ApproveByExternalReference flips the PENDING payments of a checkout
	// session to APPROVED and applies the balance update transactionally.
	// Returns the approved amount; zero when the session has no pending rows
	// (repeat notification).
	ApproveByExternalReference(ctx context.Context, ref string, reviewedAt time.Time) (float64, error)
	// RejectByExternalReference marks the session's PENDING payments
	// REJECTED with the given reason. No balance mutation.
	RejectByExternalReference(ctx context.Context, ref, reason string, reviewedAt time.Time) error
}

// SettingsRepository defines system settings repository interface
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	GetAll(ctx context.Context) ([]*models.SystemSetting, error)
	Set(ctx context.Context, key, value string) error
}
