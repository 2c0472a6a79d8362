package services

import (
	"context"
	"strings"
	"time"

	"escolapay/internal/adapters/persistence/models"
	"escolapay/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// In-memory repository fakes shared by the service tests.

type fakeUserRepo struct {
	users  map[uint]*models.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint]*models.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByDNI(_ context.Context, dni string) (*models.User, error) {
	for _, user := range r.users {
		if user.DNI == dni {
			clone := *user
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uint) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, filter repositories.StudentFilter, offset, limit int) ([]*models.User, int64, error) {
	var matched []*models.User
	for id := uint(1); id <= r.nextID; id++ {
		user, ok := r.users[id]
		if !ok {
			continue
		}
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		if filter.SchoolDivisionID != nil &&
			(user.SchoolDivisionID == nil || *user.SchoolDivisionID != *filter.SchoolDivisionID) {
			continue
		}
		if filter.ProductID != nil &&
			(user.ProductID == nil || *user.ProductID != *filter.ProductID) {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(user.DNI, filter.Search) &&
			!strings.Contains(strings.ToLower(user.LastName), strings.ToLower(filter.Search)) {
			continue
		}
		clone := *user
		matched = append(matched, &clone)
	}

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *fakeUserRepo) ExistsByDNI(ctx context.Context, dni string) (bool, error) {
	_, err := r.GetByDNI(ctx, dni)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (r *fakeUserRepo) CountBySchool(_ context.Context, schoolID uint) (int64, error) {
	return 0, nil
}

func (r *fakeUserRepo) CountByDivision(_ context.Context, divisionID uint) (int64, error) {
	var n int64
	for _, user := range r.users {
		if user.SchoolDivisionID != nil && *user.SchoolDivisionID == divisionID {
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) CountByProduct(_ context.Context, productID uint) (int64, error) {
	var n int64
	for _, user := range r.users {
		if user.ProductID != nil && *user.ProductID == productID {
			n++
		}
	}
	return n, nil
}

type fakeAccountRepo struct {
	accounts map[uint]*models.Account // by user ID
	nextID   uint
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[uint]*models.Account{}}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *models.Account) error {
	r.nextID++
	account.ID = r.nextID
	clone := *account
	r.accounts[account.UserID] = &clone
	return nil
}

func (r *fakeAccountRepo) GetByUserID(_ context.Context, userID uint) (*models.Account, error) {
	account, ok := r.accounts[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *account
	return &clone, nil
}

func (r *fakeAccountRepo) Update(_ context.Context, account *models.Account) error {
	if _, ok := r.accounts[account.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *account
	r.accounts[account.UserID] = &clone
	return nil
}

func (r *fakeAccountRepo) ExistsByUserID(_ context.Context, userID uint) (bool, error) {
	_, ok := r.accounts[userID]
	return ok, nil
}

type fakeRefreshTokenRepo struct {
	tokens map[uint]*models.RefreshToken
	nextID uint
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: map[uint]*models.RefreshToken{}}
}

func (r *fakeRefreshTokenRepo) Create(_ context.Context, token *models.RefreshToken) error {
	r.nextID++
	token.ID = r.nextID
	clone := *token
	r.tokens[token.ID] = &clone
	return nil
}

func (r *fakeRefreshTokenRepo) GetByTokenHash(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	for _, token := range r.tokens {
		if token.TokenHash == tokenHash {
			clone := *token
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRefreshTokenRepo) Revoke(_ context.Context, id uint) error {
	token, ok := r.tokens[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	token.RevokedAt = &now
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeByTokenHash(_ context.Context, tokenHash string) error {
	for _, token := range r.tokens {
		if token.TokenHash == tokenHash {
			now := time.Now()
			token.RevokedAt = &now
			return nil
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeAllByUserID(_ context.Context, userID uint) error {
	now := time.Now()
	for _, token := range r.tokens {
		if token.UserID == userID {
			token.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpired(_ context.Context) error {
	return nil
}

type fakeSchoolRepo struct {
	schools      map[uint]*models.School
	divisions    map[uint]*models.SchoolDivision
	nextSchoolID uint
	nextDivID    uint
}

func newFakeSchoolRepo() *fakeSchoolRepo {
	return &fakeSchoolRepo{
		schools:   map[uint]*models.School{},
		divisions: map[uint]*models.SchoolDivision{},
	}
}

func (r *fakeSchoolRepo) Create(_ context.Context, school *models.School) error {
	r.nextSchoolID++
	school.ID = r.nextSchoolID
	clone := *school
	r.schools[school.ID] = &clone
	return nil
}

func (r *fakeSchoolRepo) GetByID(_ context.Context, id uint) (*models.School, error) {
	school, ok := r.schools[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *school
	return &clone, nil
}

func (r *fakeSchoolRepo) GetByName(_ context.Context, name string) (*models.School, error) {
	for _, school := range r.schools {
		if school.Name == name {
			clone := *school
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSchoolRepo) List(_ context.Context) ([]*models.School, error) {
	var out []*models.School
	for id := uint(1); id <= r.nextSchoolID; id++ {
		if school, ok := r.schools[id]; ok {
			clone := *school
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeSchoolRepo) Update(_ context.Context, school *models.School) error {
	if _, ok := r.schools[school.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *school
	r.schools[school.ID] = &clone
	return nil
}

func (r *fakeSchoolRepo) Delete(_ context.Context, id uint) error {
	delete(r.schools, id)
	return nil
}

func (r *fakeSchoolRepo) ListDivisions(_ context.Context, schoolID uint) ([]*models.SchoolDivision, error) {
	var out []*models.SchoolDivision
	for id := uint(1); id <= r.nextDivID; id++ {
		division, ok := r.divisions[id]
		if !ok || division.SchoolID != schoolID {
			continue
		}
		clone := *division
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeSchoolRepo) GetDivision(_ context.Context, schoolID uint, label string, year int) (*models.SchoolDivision, error) {
	for _, division := range r.divisions {
		if division.SchoolID == schoolID && division.Division == label && division.Year == year {
			clone := *division
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSchoolRepo) GetDivisionByID(_ context.Context, id uint) (*models.SchoolDivision, error) {
	division, ok := r.divisions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *division
	return &clone, nil
}

func (r *fakeSchoolRepo) CreateDivision(_ context.Context, division *models.SchoolDivision) error {
	r.nextDivID++
	division.ID = r.nextDivID
	clone := *division
	r.divisions[division.ID] = &clone
	return nil
}

type fakeProductRepo struct {
	products map[uint]*models.Product
	nextID   uint
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[uint]*models.Product{}}
}

func (r *fakeProductRepo) Create(_ context.Context, product *models.Product) error {
	r.nextID++
	product.ID = r.nextID
	clone := *product
	r.products[product.ID] = &clone
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id uint) (*models.Product, error) {
	product, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *product
	return &clone, nil
}

func (r *fakeProductRepo) List(_ context.Context) ([]*models.Product, error) {
	var out []*models.Product
	for id := uint(1); id <= r.nextID; id++ {
		if product, ok := r.products[id]; ok {
			clone := *product
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *models.Product) error {
	if _, ok := r.products[product.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *product
	r.products[product.ID] = &clone
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uint) error {
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) UpdatePriceAndRecalculate(_ context.Context, productID uint, newPrice, recalcPct float64) (int64, error) {
	product, ok := r.products[productID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	product.CurrentPrice = newPrice
	return 0, nil
}

// fakePaymentRepo mirrors the transactional balance coupling: approved
// inserts also mutate the user store it is wired to.
type fakePaymentRepo struct {
	payments map[uint]*models.Payment
	users    *fakeUserRepo
	nextID   uint
}

func newFakePaymentRepo(users *fakeUserRepo) *fakePaymentRepo {
	return &fakePaymentRepo{
		payments: map[uint]*models.Payment{},
		users:    users,
	}
}

func (r *fakePaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	r.nextID++
	payment.ID = r.nextID
	payment.SubmittedAt = time.Now()
	clone := *payment
	r.payments[payment.ID] = &clone
	return nil
}

func (r *fakePaymentRepo) GetByID(_ context.Context, id uint) (*models.Payment, error) {
	payment, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *payment
	return &clone, nil
}

func (r *fakePaymentRepo) ListByUser(_ context.Context, userID uint) ([]*models.Payment, error) {
	var out []*models.Payment
	for id := uint(1); id <= r.nextID; id++ {
		payment, ok := r.payments[id]
		if !ok || payment.UserID != userID {
			continue
		}
		clone := *payment
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakePaymentRepo) List(_ context.Context, filter repositories.PaymentFilter, offset, limit int) ([]*models.Payment, int64, error) {
	var matched []*models.Payment
	for id := uint(1); id <= r.nextID; id++ {
		payment, ok := r.payments[id]
		if !ok {
			continue
		}
		if filter.UserID != nil && payment.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && payment.Status != filter.Status {
			continue
		}
		if filter.Method != "" && payment.Method != filter.Method {
			continue
		}
		clone := *payment
		matched = append(matched, &clone)
	}

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *fakePaymentRepo) ListByExternalReference(_ context.Context, ref string) ([]*models.Payment, error) {
	var out []*models.Payment
	for id := uint(1); id <= r.nextID; id++ {
		payment, ok := r.payments[id]
		if !ok || payment.ExternalReference != ref {
			continue
		}
		clone := *payment
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakePaymentRepo) Update(_ context.Context, payment *models.Payment) error {
	if _, ok := r.payments[payment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *payment
	r.payments[payment.ID] = &clone
	return nil
}

func (r *fakePaymentRepo) CountByUser(_ context.Context, userID uint) (int64, error) {
	var n int64
	for _, payment := range r.payments {
		if payment.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakePaymentRepo) CreateApproved(ctx context.Context, payments []*models.Payment, userID uint, total float64) error {
	for _, payment := range payments {
		if err := r.Create(ctx, payment); err != nil {
			return err
		}
	}
	return r.applyBalance(userID, total)
}

func (r *fakePaymentRepo) ApproveByExternalReference(_ context.Context, ref string, reviewedAt time.Time) (float64, error) {
	var total float64
	var userID uint
	for _, payment := range r.payments {
		if payment.ExternalReference != ref || payment.Status != models.PaymentStatusPending {
			continue
		}
		payment.Status = models.PaymentStatusApproved
		payment.ReviewedAt = &reviewedAt
		total += payment.Amount
		userID = payment.UserID
	}
	if total == 0 {
		return 0, nil
	}
	return total, r.applyBalance(userID, total)
}

func (r *fakePaymentRepo) RejectByExternalReference(_ context.Context, ref, reason string, reviewedAt time.Time) error {
	for _, payment := range r.payments {
		if payment.ExternalReference != ref || payment.Status != models.PaymentStatusPending {
			continue
		}
		payment.Status = models.PaymentStatusRejected
		payment.RejectionReason = reason
		payment.ReviewedAt = &reviewedAt
	}
	return nil
}

func (r *fakePaymentRepo) applyBalance(userID uint, total float64) error {
	user, ok := r.users.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.PaidAmount += total
	user.Balance -= total
	return nil
}

type fakeSettingsRepo struct {
	values map[string]string
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{values: map[string]string{
		models.SettingPaymentDueDay:           "10",
		models.SettingLateFeePercentage:       "5",
		models.SettingRecalculationPercentage: "10",
	}}
}

func (r *fakeSettingsRepo) Get(_ context.Context, key string) (string, error) {
	value, ok := r.values[key]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return value, nil
}

func (r *fakeSettingsRepo) GetAll(_ context.Context) ([]*models.SystemSetting, error) {
	var out []*models.SystemSetting
	for key, value := range r.values {
		out = append(out, &models.SystemSetting{Key: key, Value: value})
	}
	return out, nil
}

func (r *fakeSettingsRepo) Set(_ context.Context, key, value string) error {
	r.values[key] = value
	return nil
}
