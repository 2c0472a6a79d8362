package repositories

import (
	"context"

	"escolapay/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID gets a user by ID with relations preloaded
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("SchoolDivision.School").
		Preload("Product").
		Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByDNI gets a user by DNI
func (r *userRepository) GetByDNI(ctx context.Context, dni string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("SchoolDivision.School").
		Preload("Product").
		Where("dni = ?", dni).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail gets a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates a user
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// Delete soft deletes a user
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.User{}, id).Error
}

// List lists users with filters and pagination
func (r *userRepository) List(ctx context.Context, filter StudentFilter, offset, limit int) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.SchoolDivisionID != nil {
		query = query.Where("school_division_id = ?", *filter.SchoolDivisionID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("dni LIKE ? OR last_name LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("SchoolDivision.School").
		Preload("Product").
		Order("last_name, first_name").
		Offset(offset).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// ExistsByDNI checks if a DNI is taken
func (r *userRepository) ExistsByDNI(ctx context.Context, dni string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("dni = ?", dni).Count(&count).Error
	return count > 0, err
}

// CountBySchool counts students across all divisions of a school
func (r *userRepository) CountBySchool(ctx context.Context, schoolID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN school_divisions ON school_divisions.id = users.school_division_id").
		Where("school_divisions.school_id = ?", schoolID).
		Count(&count).Error
	return count, err
}

// CountByDivision counts students in one division
func (r *userRepository) CountByDivision(ctx context.Context, divisionID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("school_division_id = ?", divisionID).
		Count(&count).Error
	return count, err
}

// CountByProduct counts students referencing a product
func (r *userRepository) CountByProduct(ctx context.Context, productID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}
