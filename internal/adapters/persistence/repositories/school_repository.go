package repositories

import (
	"context"

	"escolapay/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// schoolRepository implements SchoolRepository interface
type schoolRepository struct {
	db *gorm.DB
}

// NewSchoolRepository creates a new school repository
func NewSchoolRepository(db *gorm.DB) SchoolRepository {
	return &schoolRepository{db: db}
}

// Create creates a new school
func (r *schoolRepository) Create(ctx context.Context, school *models.School) error {
	return r.db.WithContext(ctx).Create(school).Error
}

// GetByID gets a school by ID
func (r *schoolRepository) GetByID(ctx context.Context, id uint) (*models.School, error) {
	var school models.School
	err := r.db.WithContext(ctx).Preload("Divisions").Where("id = ?", id).First(&school).Error
	if err != nil {
		return nil, err
	}
	return &school, nil
}

// GetByName gets a school by exact name
func (r *schoolRepository) GetByName(ctx context.Context, name string) (*models.School, error) {
	var school models.School
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&school).Error
	if err != nil {
		return nil, err
	}
	return &school, nil
}

// List lists all schools with their divisions
func (r *schoolRepository) List(ctx context.Context) ([]*models.School, error) {
	var schools []*models.School
	err := r.db.WithContext(ctx).Preload("Divisions").Order("name").Find(&schools).Error
	return schools, err
}

// Update updates a school
func (r *schoolRepository) Update(ctx context.Context, school *models.School) error {
	return r.db.WithContext(ctx).Save(school).Error
}

// Delete soft deletes a school
func (r *schoolRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.School{}, id).Error
}

// ListDivisions lists the divisions of a school
func (r *schoolRepository) ListDivisions(ctx context.Context, schoolID uint) ([]*models.SchoolDivision, error) {
	var divisions []*models.SchoolDivision
	err := r.db.WithContext(ctx).
		Where("school_id = ?", schoolID).
		Order("year DESC, division").
		Find(&divisions).Error
	return divisions, err
}

// GetDivision finds a division by its natural key
func (r *schoolRepository) GetDivision(ctx context.Context, schoolID uint, division string, year int) (*models.SchoolDivision, error) {
	var d models.SchoolDivision
	err := r.db.WithContext(ctx).
		Where("school_id = ? AND division = ? AND year = ?", schoolID, division, year).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDivisionByID gets a division by ID
func (r *schoolRepository) GetDivisionByID(ctx context.Context, id uint) (*models.SchoolDivision, error) {
	var d models.SchoolDivision
	err := r.db.WithContext(ctx).Preload("School").Where("id = ?", id).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDivision creates a division
func (r *schoolRepository) CreateDivision(ctx context.Context, division *models.SchoolDivision) error {
	return r.db.WithContext(ctx).Create(division).Error
}
