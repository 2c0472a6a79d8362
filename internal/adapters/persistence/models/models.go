package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Identity tables
// ============================================================

// Roles
const (
	RoleAdmin   = "ADMIN"
	RoleStudent = "STUDENT"
)

// User represents the users table. Students carry the financial snapshot;
// admins leave it at zero.
type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	DNI              string         `gorm:"column:dni;uniqueIndex;size:20;not null" json:"dni"`
	FirstName        string         `gorm:"size:100;not null" json:"first_name"`
	LastName         string         `gorm:"size:100;not null" json:"last_name"`
	Email            string         `gorm:"size:100;index" json:"email"`
	Role             string         `gorm:"size:20;default:'STUDENT'" json:"role"`
	TotalAmount      float64        `gorm:"type:decimal(15,2);default:0" json:"total_amount"`
	PaidAmount       float64        `gorm:"type:decimal(15,2);default:0" json:"paid_amount"`
	Balance          float64        `gorm:"type:decimal(15,2);default:0" json:"balance"`
	Installments     int            `gorm:"default:1" json:"installments"`
	SchoolDivisionID *uint          `gorm:"index" json:"school_division_id"`
	ProductID        *uint          `gorm:"index" json:"product_id"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	SchoolDivision *SchoolDivision `gorm:"foreignKey:SchoolDivisionID" json:"school_division,omitempty"`
	Product        *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// UserResponse DTO
type UserResponse struct {
	ID               uint      `json:"id"`
	DNI              string    `json:"dni"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	TotalAmount      float64   `json:"total_amount"`
	PaidAmount       float64   `json:"paid_amount"`
	Balance          float64   `json:"balance"`
	Installments     int       `json:"installments"`
	SchoolDivisionID *uint     `json:"school_division_id"`
	ProductID        *uint     `json:"product_id"`
	SchoolName       string    `json:"school_name,omitempty"`
	Division         string    `json:"division,omitempty"`
	ProductName      string    `json:"product_name,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	resp := &UserResponse{
		ID:               u.ID,
		DNI:              u.DNI,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		Role:             u.Role,
		TotalAmount:      u.TotalAmount,
		PaidAmount:       u.PaidAmount,
		Balance:          u.Balance,
		Installments:     u.Installments,
		SchoolDivisionID: u.SchoolDivisionID,
		ProductID:        u.ProductID,
		CreatedAt:        u.CreatedAt,
	}

	if u.SchoolDivision != nil {
		resp.Division = u.SchoolDivision.Division
		if u.SchoolDivision.School != nil {
			resp.SchoolName = u.SchoolDivision.School.Name
		}
	}
	if u.Product != nil {
		resp.ProductName = u.Product.Name
	}

	return resp
}

// Account holds the credential record for the "credentials" provider.
// One-to-one with User.
type Account struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Account) TableName() string {
	return "accounts"
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// School hierarchy
// ============================================================

// School groups divisions. Name is unique.
type School struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"uniqueIndex;size:150;not null" json:"name"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Divisions []SchoolDivision `gorm:"foreignKey:SchoolID" json:"divisions,omitempty"`
}

func (School) TableName() string {
	return "schools"
}

// SchoolDivision is keyed by (school, division label, year). Divisions are
// created implicitly during student creation/import when absent.
type SchoolDivision struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SchoolID  uint      `gorm:"not null;uniqueIndex:idx_school_division_year" json:"school_id"`
	Division  string    `gorm:"size:50;not null;uniqueIndex:idx_school_division_year" json:"division"`
	Year      int       `gorm:"not null;uniqueIndex:idx_school_division_year" json:"year"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	School *School `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
}

func (SchoolDivision) TableName() string {
	return "school_divisions"
}

// ============================================================
// Products
// ============================================================

// Product is a purchasable item. BasePrice is the historical reference,
// CurrentPrice the mutable one.
type Product struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:150;not null" json:"name"`
	Description  string         `gorm:"type:text" json:"description"`
	BasePrice    float64        `gorm:"type:decimal(15,2);not null" json:"base_price"`
	CurrentPrice float64        `gorm:"type:decimal(15,2);not null" json:"current_price"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// ============================================================
// Payments
// ============================================================

// Payment statuses
const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusApproved = "APPROVED"
	PaymentStatusRejected = "REJECTED"
)

// Payment methods
const (
	PaymentMethodCash    = "CASH"
	PaymentMethodGateway = "GATEWAY"
)

// Payment is one attempt to settle an installment. Immutable once APPROVED;
// REJECTED is terminal but retained for audit.
type Payment struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"not null;index" json:"user_id"`
	Amount            float64    `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status            string     `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	Method            string     `gorm:"size:20;not null" json:"method"`
	InstallmentNumber *int       `gorm:"index" json:"installment_number"`
	Receipt           string     `gorm:"size:255" json:"receipt,omitempty"`
	ExternalReference string     `gorm:"size:64;index" json:"external_reference,omitempty"`
	SubmittedAt       time.Time  `gorm:"autoCreateTime" json:"submitted_at"`
	ReviewedAt        *time.Time `json:"reviewed_at"`
	ReviewedBy        *uint      `json:"reviewed_by"`
	RejectionReason   string     `gorm:"type:text" json:"rejection_reason,omitempty"`

	// Relations
	User     *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Reviewer *User `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) IsApproved() bool {
	return p.Status == PaymentStatusApproved
}

// PaymentResponse DTO
type PaymentResponse struct {
	ID                uint       `json:"id"`
	UserID            uint       `json:"user_id"`
	StudentDNI        string     `json:"student_dni,omitempty"`
	StudentName       string     `json:"student_name,omitempty"`
	Amount            float64    `json:"amount"`
	Status            string     `json:"status"`
	Method            string     `json:"method"`
	InstallmentNumber *int       `json:"installment_number"`
	Receipt           string     `json:"receipt,omitempty"`
	ExternalReference string     `json:"external_reference,omitempty"`
	SubmittedAt       time.Time  `json:"submitted_at"`
	ReviewedAt        *time.Time `json:"reviewed_at"`
	ReviewedBy        *uint      `json:"reviewed_by"`
	RejectionReason   string     `json:"rejection_reason,omitempty"`
}

func (p *Payment) ToResponse() *PaymentResponse {
	resp := &PaymentResponse{
		ID:                p.ID,
		UserID:            p.UserID,
		Amount:            p.Amount,
		Status:            p.Status,
		Method:            p.Method,
		InstallmentNumber: p.InstallmentNumber,
		Receipt:           p.Receipt,
		ExternalReference: p.ExternalReference,
		SubmittedAt:       p.SubmittedAt,
		ReviewedAt:        p.ReviewedAt,
		ReviewedBy:        p.ReviewedBy,
		RejectionReason:   p.RejectionReason,
	}

	if p.User != nil {
		resp.StudentDNI = p.User.DNI
		resp.StudentName = p.User.FirstName + " " + p.User.LastName
	}

	return resp
}

// ============================================================
// System settings
// ============================================================

// Setting keys read by the external late-fee procedure
const (
	SettingPaymentDueDay           = "payment_due_day"
	SettingLateFeePercentage       = "late_fee_percentage"
	SettingRecalculationPercentage = "total_recalculation_percentage"
)

// SystemSetting is process-wide key-value configuration, admin-editable.
type SystemSetting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value     string    `gorm:"size:255;not null" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Account{},
		&RefreshToken{},
		&School{},
		&SchoolDivision{},
		&Product{},
		&Payment{},
		&SystemSetting{},
	)
}
