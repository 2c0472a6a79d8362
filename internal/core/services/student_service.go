package services

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"escolapay/internal/adapters/persistence/models"
	"escolapay/internal/adapters/persistence/repositories"
	"escolapay/internal/core/roster"
	"escolapay/internal/pkg/pagination"
	"escolapay/internal/pkg/password"

	"gorm.io/gorm"
)

// Student service errors
var (
	ErrDNITaken           = errors.New("dni already registered")
	ErrProductNotFound    = errors.New("product not found")
	ErrStudentHasPayments = errors.New("student has payments on record")
)

// StudentService manages student records and their credential bootstrap
type StudentService struct {
	userRepo    repositories.UserRepository
	accountRepo repositories.AccountRepository
	schoolRepo  repositories.SchoolRepository
	productRepo repositories.ProductRepository
	paymentRepo repositories.PaymentRepository
}

// NewStudentService creates a new student service
func NewStudentService(
	userRepo repositories.UserRepository,
	accountRepo repositories.AccountRepository,
	schoolRepo repositories.SchoolRepository,
	productRepo repositories.ProductRepository,
	paymentRepo repositories.PaymentRepository,
) *StudentService {
	return &StudentService{
		userRepo:    userRepo,
		accountRepo: accountRepo,
		schoolRepo:  schoolRepo,
		productRepo: productRepo,
		paymentRepo: paymentRepo,
	}
}

// CreateStudentInput represents student creation input
type CreateStudentInput struct {
	DNI          string   `json:"dni" validate:"required,min=6,max=20"`
	FirstName    string   `json:"first_name" validate:"required"`
	LastName     string   `json:"last_name" validate:"required"`
	Email        string   `json:"email" validate:"omitempty,email"`
	School       string   `json:"school" validate:"required"`
	Division     string   `json:"division" validate:"required"`
	Year         int      `json:"year" validate:"required,gte=2000"`
	ProductID    *uint    `json:"product_id"`
	TotalAmount  *float64 `json:"total_amount" validate:"omitempty,gt=0"`
	Installments int      `json:"installments" validate:"required,gte=1,lte=24"`
}

// CreateStudent registers a student, resolving (or creating) the school and
// division and provisioning the default credential: the student's own DNI.
func (s *StudentService) CreateStudent(ctx context.Context, input *CreateStudentInput) (*models.User, error) {
	exists, err := s.userRepo.ExistsByDNI(ctx, input.DNI)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDNITaken
	}

	division, err := s.resolveDivision(ctx, input.School, input.Division, input.Year)
	if err != nil {
		return nil, err
	}

	total, err := s.resolveTotal(ctx, input.ProductID, input.TotalAmount)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		DNI:              input.DNI,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Email:            input.Email,
		Role:             models.RoleStudent,
		TotalAmount:      total,
		PaidAmount:       0,
		Balance:          total,
		Installments:     input.Installments,
		SchoolDivisionID: &division.ID,
		ProductID:        input.ProductID,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.provisionAccount(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ Student created: DNI %s (%s %s), division %d",
		user.DNI, user.FirstName, user.LastName, division.ID)

	return s.userRepo.GetByID(ctx, user.ID)
}

// UpdateStudentInput represents student update input. Zero-value fields are
// left untouched.
type UpdateStudentInput struct {
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Email        string   `json:"email" validate:"omitempty,email"`
	TotalAmount  *float64 `json:"total_amount" validate:"omitempty,gt=0"`
	Installments *int     `json:"installments" validate:"omitempty,gte=1,lte=24"`
	ProductID    *uint    `json:"product_id"`
}

// UpdateStudent patches a student. Changing the total rebalances against the
// amount already paid.
func (s *StudentService) UpdateStudent(ctx context.Context, id uint, input *UpdateStudentInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if !user.IsStudent() {
		return nil, ErrNotAStudent
	}

	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}
	if input.LastName != "" {
		user.LastName = input.LastName
	}
	if input.Email != "" {
		user.Email = input.Email
	}
	if input.TotalAmount != nil {
		user.TotalAmount = *input.TotalAmount
		user.Balance = user.TotalAmount - user.PaidAmount
	}
	if input.Installments != nil {
		user.Installments = *input.Installments
	}
	if input.ProductID != nil {
		if _, err := s.productRepo.GetByID(ctx, *input.ProductID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, err
		}
		user.ProductID = input.ProductID
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return s.userRepo.GetByID(ctx, user.ID)
}

// DeleteStudent soft-deletes a student. Refused while any payment rows
// reference them; the audit trail wins.
func (s *StudentService) DeleteStudent(ctx context.Context, id uint) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}
	if !user.IsStudent() {
		return ErrNotAStudent
	}

	count, err := s.paymentRepo.CountByUser(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrStudentHasPayments
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Printf("ℹ️ Student deleted: DNI %s", user.DNI)
	return nil
}

// GetStudent fetches one student with relations preloaded
func (s *StudentService) GetStudent(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if !user.IsStudent() {
		return nil, ErrStudentNotFound
	}
	return user, nil
}

// ListStudentsInput represents student listing input
type ListStudentsInput struct {
	Page             int
	Limit            int
	SchoolDivisionID *uint
	ProductID        *uint
	Search           string
}

// ListStudentsOutput represents student listing output
type ListStudentsOutput struct {
	Students   []*models.UserResponse `json:"students"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// ListStudents lists students with pagination and filters
func (s *StudentService) ListStudents(ctx context.Context, input *ListStudentsInput) (*ListStudentsOutput, error) {
	params := pagination.Normalize(input.Page, input.Limit)

	users, total, err := s.userRepo.List(ctx, repositories.StudentFilter{
		Role:             models.RoleStudent,
		SchoolDivisionID: input.SchoolDivisionID,
		ProductID:        input.ProductID,
		Search:           input.Search,
	}, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.UserResponse, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse()
	}

	meta := pagination.GetMeta(params, total)

	return &ListStudentsOutput{
		Students:   responses,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: meta.TotalPages,
	}, nil
}

// ImportRowResult reports one spreadsheet row's outcome
type ImportRowResult struct {
	Line    int    `json:"line"`
	DNI     string `json:"dni,omitempty"`
	Status  string `json:"status"` // CREATED | SKIPPED | ERROR
	Message string `json:"message,omitempty"`
}

// ImportResult reports a bulk import run
type ImportResult struct {
	School   string            `json:"school"`
	Division string            `json:"division"`
	Year     int               `json:"year"`
	Created  int               `json:"created"`
	Skipped  int               `json:"skipped"`
	Failed   int               `json:"failed"`
	Rows     []ImportRowResult `json:"rows"`
}

// ImportRoster bulk-creates students from an xlsx stream. Rows with an
// already-registered DNI are skipped; bad rows are reported, never fatal.
func (s *StudentService) ImportRoster(ctx context.Context, file io.Reader, productID *uint) (*ImportResult, error) {
	cells, err := roster.ReadFile(file)
	if err != nil {
		return nil, err
	}

	sheet, err := roster.Parse(cells)
	if err != nil {
		return nil, err
	}

	division, err := s.resolveDivision(ctx, sheet.Header.School, sheet.Header.Division, sheet.Header.Year)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		School:   sheet.Header.School,
		Division: sheet.Header.Division,
		Year:     sheet.Header.Year,
	}

	for _, parseErr := range sheet.Errors {
		result.Failed++
		result.Rows = append(result.Rows, ImportRowResult{
			Line:    parseErr.Line,
			Status:  "ERROR",
			Message: parseErr.Message,
		})
	}

	for _, row := range sheet.Rows {
		outcome := s.importRow(ctx, row, division, productID)
		switch outcome.Status {
		case "CREATED":
			result.Created++
		case "SKIPPED":
			result.Skipped++
		default:
			result.Failed++
		}
		result.Rows = append(result.Rows, outcome)
	}

	log.Printf("✅ Roster imported: %s / %s %d — %d created, %d skipped, %d failed",
		result.School, result.Division, result.Year, result.Created, result.Skipped, result.Failed)

	return result, nil
}

func (s *StudentService) importRow(ctx context.Context, row roster.Row, division *models.SchoolDivision, productID *uint) ImportRowResult {
	exists, err := s.userRepo.ExistsByDNI(ctx, row.DNI)
	if err != nil {
		return ImportRowResult{Line: row.Line, DNI: row.DNI, Status: "ERROR", Message: err.Error()}
	}
	if exists {
		return ImportRowResult{Line: row.Line, DNI: row.DNI, Status: "SKIPPED", Message: "dni already registered"}
	}

	user := &models.User{
		DNI:              row.DNI,
		FirstName:        row.FirstName,
		LastName:         row.LastName,
		Email:            row.Email,
		Role:             models.RoleStudent,
		TotalAmount:      row.TotalAmount,
		Balance:          row.TotalAmount,
		Installments:     row.Installments,
		SchoolDivisionID: &division.ID,
		ProductID:        productID,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return ImportRowResult{Line: row.Line, DNI: row.DNI, Status: "ERROR", Message: err.Error()}
	}

	if err := s.provisionAccount(ctx, user); err != nil {
		return ImportRowResult{Line: row.Line, DNI: row.DNI, Status: "ERROR", Message: err.Error()}
	}

	return ImportRowResult{Line: row.Line, DNI: row.DNI, Status: "CREATED"}
}

// resolveDivision finds the (school, division, year) tuple, creating school
// and division when absent. School matching is by exact name.
func (s *StudentService) resolveDivision(ctx context.Context, schoolName, divisionLabel string, year int) (*models.SchoolDivision, error) {
	schoolName = strings.TrimSpace(schoolName)
	divisionLabel = strings.TrimSpace(divisionLabel)

	school, err := s.schoolRepo.GetByName(ctx, schoolName)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		school = &models.School{Name: schoolName}
		if err := s.schoolRepo.Create(ctx, school); err != nil {
			return nil, err
		}
		log.Printf("ℹ️ School created implicitly: %s", schoolName)
	}

	division, err := s.schoolRepo.GetDivision(ctx, school.ID, divisionLabel, year)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		division = &models.SchoolDivision{
			SchoolID: school.ID,
			Division: divisionLabel,
			Year:     year,
		}
		if err := s.schoolRepo.CreateDivision(ctx, division); err != nil {
			return nil, err
		}
		log.Printf("ℹ️ Division created implicitly: %s %s (%d)", schoolName, divisionLabel, year)
	}

	return division, nil
}

// resolveTotal picks the explicit amount when provided, otherwise the
// product's current price.
func (s *StudentService) resolveTotal(ctx context.Context, productID *uint, explicit *float64) (float64, error) {
	if explicit != nil {
		return *explicit, nil
	}
	if productID == nil {
		return 0, nil
	}
	product, err := s.productRepo.GetByID(ctx, *productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}
	return product.CurrentPrice, nil
}

// provisionAccount creates the default credential record: password == DNI.
// The login flow flags it as temporary until the student changes it.
func (s *StudentService) provisionAccount(ctx context.Context, user *models.User) error {
	hash, err := password.Hash(user.DNI)
	if err != nil {
		return err
	}
	return s.accountRepo.Create(ctx, &models.Account{
		UserID:       user.ID,
		PasswordHash: hash,
	})
}
