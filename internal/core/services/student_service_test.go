package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"escolapay/internal/adapters/persistence/models"
	"escolapay/internal/pkg/password"

	"github.com/xuri/excelize/v2"
)

type studentFixture struct {
	svc      *StudentService
	users    *fakeUserRepo
	accounts *fakeAccountRepo
	schools  *fakeSchoolRepo
	products *fakeProductRepo
	payments *fakePaymentRepo
}

func newStudentFixture(t *testing.T) *studentFixture {
	t.Helper()
	users := newFakeUserRepo()
	accounts := newFakeAccountRepo()
	schools := newFakeSchoolRepo()
	products := newFakeProductRepo()
	payments := newFakePaymentRepo(users)
	return &studentFixture{
		svc:      NewStudentService(users, accounts, schools, products, payments),
		users:    users,
		accounts: accounts,
		schools:  schools,
		products: products,
		payments: payments,
	}
}

func TestCreateStudent(t *testing.T) {
	f := newStudentFixture(t)
	ctx := context.Background()

	total := 50000.0
	user, err := f.svc.CreateStudent(ctx, &CreateStudentInput{
		DNI:          "30123456",
		FirstName:    "Ana",
		LastName:     "García",
		Email:        "ana@example.com",
		School:       "San Martín",
		Division:     "5to A",
		Year:         2026,
		TotalAmount:  &total,
		Installments: 3,
	})
	if err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}

	if user.Balance != 50000 || user.PaidAmount != 0 {
		t.Errorf("fresh student balance/paid = %v/%v, want 50000/0", user.Balance, user.PaidAmount)
	}

	t.Run("school and division created implicitly", func(t *testing.T) {
		school, err := f.schools.GetByName(ctx, "San Martín")
		if err != nil {
			t.Fatalf("school not created: %v", err)
		}
		if _, err := f.schools.GetDivision(ctx, school.ID, "5to A", 2026); err != nil {
			t.Errorf("division not created: %v", err)
		}
	})

	t.Run("default credential is the dni", func(t *testing.T) {
		account, err := f.accounts.GetByUserID(ctx, user.ID)
		if err != nil {
			t.Fatalf("account not provisioned: %v", err)
		}
		if !password.Verify("30123456", account.PasswordHash) {
			t.Error("default credential does not match the DNI")
		}
		if !password.IsTemporary(user.DNI, account.PasswordHash) {
			t.Error("default credential not flagged temporary")
		}
	})

	t.Run("duplicate dni refused", func(t *testing.T) {
		_, err := f.svc.CreateStudent(ctx, &CreateStudentInput{
			DNI:          "30123456",
			FirstName:    "Otra",
			LastName:     "Persona",
			School:       "San Martín",
			Division:     "5to A",
			Year:         2026,
			TotalAmount:  &total,
			Installments: 3,
		})
		if !errors.Is(err, ErrDNITaken) {
			t.Errorf("CreateStudent() error = %v, want ErrDNITaken", err)
		}
	})

	t.Run("existing division reused", func(t *testing.T) {
		_, err := f.svc.CreateStudent(ctx, &CreateStudentInput{
			DNI:          "31234567",
			FirstName:    "Bruno",
			LastName:     "Pérez",
			School:       "San Martín",
			Division:     "5to A",
			Year:         2026,
			TotalAmount:  &total,
			Installments: 3,
		})
		if err != nil {
			t.Fatalf("CreateStudent() error = %v", err)
		}
		if f.schools.nextSchoolID != 1 || f.schools.nextDivID != 1 {
			t.Errorf("duplicated hierarchy: %d schools, %d divisions",
				f.schools.nextSchoolID, f.schools.nextDivID)
		}
	})
}

func TestCreateStudent_TotalFromProductPrice(t *testing.T) {
	f := newStudentFixture(t)
	ctx := context.Background()

	product := &models.Product{Name: "Campera de egresados", BasePrice: 48000, CurrentPrice: 52000, IsActive: true}
	if err := f.products.Create(ctx, product); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	user, err := f.svc.CreateStudent(ctx, &CreateStudentInput{
		DNI:          "30123456",
		FirstName:    "Ana",
		LastName:     "García",
		School:       "San Martín",
		Division:     "5to A",
		Year:         2026,
		ProductID:    &product.ID,
		Installments: 4,
	})
	if err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}
	if user.TotalAmount != 52000 {
		t.Errorf("TotalAmount = %v, want the product current price 52000", user.TotalAmount)
	}
}

func TestUpdateStudent_TotalChangeRebalances(t *testing.T) {
	f := newStudentFixture(t)
	ctx := context.Background()

	total := 50000.0
	user, err := f.svc.CreateStudent(ctx, &CreateStudentInput{
		DNI:          "30123456",
		FirstName:    "Ana",
		LastName:     "García",
		School:       "San Martín",
		Division:     "5to A",
		Year:         2026,
		TotalAmount:  &total,
		Installments: 3,
	})
	if err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}

	// Simulate a prior approved payment
	stored := f.users.users[user.ID]
	stored.PaidAmount = 16666.66
	stored.Balance = stored.TotalAmount - stored.PaidAmount

	newTotal := 60000.0
	updated, err := f.svc.UpdateStudent(ctx, user.ID, &UpdateStudentInput{TotalAmount: &newTotal})
	if err != nil {
		t.Fatalf("UpdateStudent() error = %v", err)
	}
	if updated.Balance != 60000-16666.66 {
		t.Errorf("Balance = %v, want %v", updated.Balance, 60000-16666.66)
	}
}

func TestDeleteStudent_BlockedByPaymentHistory(t *testing.T) {
	f := newStudentFixture(t)
	ctx := context.Background()

	total := 50000.0
	user, err := f.svc.CreateStudent(ctx, &CreateStudentInput{
		DNI:          "30123456",
		FirstName:    "Ana",
		LastName:     "García",
		School:       "San Martín",
		Division:     "5to A",
		Year:         2026,
		TotalAmount:  &total,
		Installments: 3,
	})
	if err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}

	one := 1
	if err := f.payments.Create(ctx, &models.Payment{
		UserID:            user.ID,
		Amount:            16666.66,
		Status:            models.PaymentStatusApproved,
		Method:            models.PaymentMethodCash,
		InstallmentNumber: &one,
	}); err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	if err := f.svc.DeleteStudent(ctx, user.ID); !errors.Is(err, ErrStudentHasPayments) {
		t.Errorf("DeleteStudent() error = %v, want ErrStudentHasPayments", err)
	}
}

// buildRosterXLSX assembles a real workbook so the import path is exercised
// end to end, xlsx decoding included.
func buildRosterXLSX(t *testing.T, rows [][]interface{}) io.Reader {
	t.Helper()
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := file.SetCellValue(sheet, axis, cell); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return &buf
}

func TestImportRoster(t *testing.T) {
	f := newStudentFixture(t)
	ctx := context.Background()

	// One DNI pre-registered to exercise the skip path
	total := 40000.0
	if _, err := f.svc.CreateStudent(ctx, &CreateStudentInput{
		DNI:          "31234567",
		FirstName:    "Bruno",
		LastName:     "Pérez",
		School:       "San Martín",
		Division:     "5to A",
		Year:         2026,
		TotalAmount:  &total,
		Installments: 2,
	}); err != nil {
		t.Fatalf("seed student: %v", err)
	}

	sheet := buildRosterXLSX(t, [][]interface{}{
		{"Colegio", "San Martín"},
		{"División", "5to A"},
		{"Año", 2026},
		{"DNI", "Nombre", "Apellido", "Email", "Total", "Cuotas"},
		{"30123456", "Ana", "García", "ana@example.com", 50000, 3},
		{"31234567", "Bruno", "Pérez", "", 40000, 2},
		{"", "Sin", "DNI", "", 50000, 3},
	})

	result, err := f.svc.ImportRoster(ctx, sheet, nil)
	if err != nil {
		t.Fatalf("ImportRoster() error = %v", err)
	}

	if result.Created != 1 || result.Skipped != 1 || result.Failed != 1 {
		t.Fatalf("created/skipped/failed = %d/%d/%d, want 1/1/1: %+v",
			result.Created, result.Skipped, result.Failed, result.Rows)
	}

	imported, err := f.users.GetByDNI(ctx, "30123456")
	if err != nil {
		t.Fatalf("imported student missing: %v", err)
	}
	if imported.TotalAmount != 50000 || imported.Installments != 3 || imported.Balance != 50000 {
		t.Errorf("imported snapshot = %+v", imported)
	}

	account, err := f.accounts.GetByUserID(ctx, imported.ID)
	if err != nil {
		t.Fatalf("imported student has no credential: %v", err)
	}
	if !password.Verify("30123456", account.PasswordHash) {
		t.Error("imported credential does not match the DNI")
	}
}

func TestListStudents_Filters(t *testing.T) {
	f := newStudentFixture(t)
	ctx := context.Background()

	total := 50000.0
	for i := 0; i < 3; i++ {
		if _, err := f.svc.CreateStudent(ctx, &CreateStudentInput{
			DNI:          fmt.Sprintf("3012345%d", i),
			FirstName:    "Ana",
			LastName:     "García",
			School:       "San Martín",
			Division:     "5to A",
			Year:         2026,
			TotalAmount:  &total,
			Installments: 3,
		}); err != nil {
			t.Fatalf("seed student %d: %v", i, err)
		}
	}

	out, err := f.svc.ListStudents(ctx, &ListStudentsInput{Page: 1, Limit: 2, Search: "garcía"})
	if err != nil {
		t.Fatalf("ListStudents() error = %v", err)
	}
	if out.Total != 3 || len(out.Students) != 2 || out.TotalPages != 2 {
		t.Errorf("got total %d, page size %d, pages %d; want 3, 2, 2",
			out.Total, len(out.Students), out.TotalPages)
	}
}
