package services

import (
	"context"
	"errors"
	"log"

	"escolapay/internal/adapters/persistence/models"
	"escolapay/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// School service errors
var (
	ErrSchoolNotFound   = errors.New("school not found")
	ErrSchoolNameTaken  = errors.New("school name already in use")
	ErrDivisionNotFound = errors.New("division not found")
	ErrDivisionExists   = errors.New("division already exists for that school and year")
	ErrHasStudents      = errors.New("entity has referencing students")
)

// SchoolService manages the school/division hierarchy
type SchoolService struct {
	schoolRepo repositories.SchoolRepository
	userRepo   repositories.UserRepository
}

// NewSchoolService creates a new school service
func NewSchoolService(
	schoolRepo repositories.SchoolRepository,
	userRepo repositories.UserRepository,
) *SchoolService {
	return &SchoolService{
		schoolRepo: schoolRepo,
		userRepo:   userRepo,
	}
}

// SchoolInput represents school create/update input
type SchoolInput struct {
	Name string `json:"name" validate:"required,min=2,max=150"`
}

// CreateSchool registers a school. Names are unique.
func (s *SchoolService) CreateSchool(ctx context.Context, input *SchoolInput) (*models.School, error) {
	if _, err := s.schoolRepo.GetByName(ctx, input.Name); err == nil {
		return nil, ErrSchoolNameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	school := &models.School{Name: input.Name}
	if err := s.schoolRepo.Create(ctx, school); err != nil {
		return nil, err
	}

	log.Printf("✅ School created: %s", school.Name)
	return school, nil
}

// GetSchool fetches one school with its divisions
func (s *SchoolService) GetSchool(ctx context.Context, id uint) (*models.School, error) {
	school, err := s.schoolRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSchoolNotFound
		}
		return nil, err
	}
	return school, nil
}

// ListSchools lists all schools
func (s *SchoolService) ListSchools(ctx context.Context) ([]*models.School, error) {
	return s.schoolRepo.List(ctx)
}

// UpdateSchool renames a school
func (s *SchoolService) UpdateSchool(ctx context.Context, id uint, input *SchoolInput) (*models.School, error) {
	school, err := s.GetSchool(ctx, id)
	if err != nil {
		return nil, err
	}

	if other, err := s.schoolRepo.GetByName(ctx, input.Name); err == nil && other.ID != id {
		return nil, ErrSchoolNameTaken
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	school.Name = input.Name
	if err := s.schoolRepo.Update(ctx, school); err != nil {
		return nil, err
	}
	return school, nil
}

// DeleteSchool removes a school. Refused while students reference any of its
// divisions.
func (s *SchoolService) DeleteSchool(ctx context.Context, id uint) error {
	if _, err := s.GetSchool(ctx, id); err != nil {
		return err
	}

	count, err := s.userRepo.CountBySchool(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrHasStudents
	}

	if err := s.schoolRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Printf("ℹ️ School deleted: id %d", id)
	return nil
}

// DivisionInput represents division creation input
type DivisionInput struct {
	Division string `json:"division" validate:"required,min=1,max=50"`
	Year     int    `json:"year" validate:"required,gte=2000"`
}

// CreateDivision adds a division to a school. The (school, label, year)
// tuple is unique.
func (s *SchoolService) CreateDivision(ctx context.Context, schoolID uint, input *DivisionInput) (*models.SchoolDivision, error) {
	if _, err := s.GetSchool(ctx, schoolID); err != nil {
		return nil, err
	}

	if _, err := s.schoolRepo.GetDivision(ctx, schoolID, input.Division, input.Year); err == nil {
		return nil, ErrDivisionExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	division := &models.SchoolDivision{
		SchoolID: schoolID,
		Division: input.Division,
		Year:     input.Year,
	}
	if err := s.schoolRepo.CreateDivision(ctx, division); err != nil {
		return nil, err
	}

	log.Printf("✅ Division created: school %d, %s (%d)", schoolID, input.Division, input.Year)
	return division, nil
}

// ListDivisions lists a school's divisions
func (s *SchoolService) ListDivisions(ctx context.Context, schoolID uint) ([]*models.SchoolDivision, error) {
	if _, err := s.GetSchool(ctx, schoolID); err != nil {
		return nil, err
	}
	return s.schoolRepo.ListDivisions(ctx, schoolID)
}
