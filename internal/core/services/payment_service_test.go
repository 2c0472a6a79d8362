package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"escolapay/internal/adapters/persistence/models"
	"escolapay/internal/core/installments"
)

type paymentFixture struct {
	svc      *PaymentService
	users    *fakeUserRepo
	payments *fakePaymentRepo
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	users := newFakeUserRepo()
	payments := newFakePaymentRepo(users)
	return &paymentFixture{
		svc:      NewPaymentService(payments, users),
		users:    users,
		payments: payments,
	}
}

func (f *paymentFixture) seedStudent(t *testing.T, dni string, total float64, installmentCount int) *models.User {
	t.Helper()
	user := &models.User{
		DNI:          dni,
		FirstName:    "Ana",
		LastName:     "García",
		Role:         models.RoleStudent,
		TotalAmount:  total,
		Balance:      total,
		Installments: installmentCount,
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func centsEqual(a, b float64) bool {
	return math.Round(a*100) == math.Round(b*100)
}

func TestGetSchedule_SplitsTotal(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.seedStudent(t, "30123456", 50000, 3)

	schedule, err := f.svc.GetSchedule(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetSchedule() error = %v", err)
	}

	want := []float64{16666.66, 16666.66, 16666.68}
	if len(schedule.Installments) != len(want) {
		t.Fatalf("len(Installments) = %d, want %d", len(schedule.Installments), len(want))
	}
	for i, inst := range schedule.Installments {
		if !centsEqual(inst.Amount, want[i]) {
			t.Errorf("installment %d amount = %v, want %v", i+1, inst.Amount, want[i])
		}
		if inst.Status != installments.StatusUnpaid {
			t.Errorf("installment %d status = %q, want UNPAID", i+1, inst.Status)
		}
	}
}

func TestSubmitCashPayment_UpdatesBalance(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.seedStudent(t, "30123456", 50000, 3)
	ctx := context.Background()
	const adminID = uint(99)

	result, err := f.svc.SubmitCashPayment(ctx, &CashPaymentInput{
		DNI:                "30123456",
		InstallmentNumbers: []int{1},
		Receipt:            "REC-0001",
	}, adminID)
	if err != nil {
		t.Fatalf("SubmitCashPayment() error = %v", err)
	}

	if !centsEqual(result.Amount, 16666.66) {
		t.Errorf("Amount = %v, want 16666.66", result.Amount)
	}
	if !centsEqual(result.Balance, 33333.34) {
		t.Errorf("Balance = %v, want 33333.34", result.Balance)
	}
	if len(result.Payments) != 1 {
		t.Fatalf("len(Payments) = %d, want 1", len(result.Payments))
	}
	p := result.Payments[0]
	if p.Status != models.PaymentStatusApproved || p.Method != models.PaymentMethodCash {
		t.Errorf("payment = %s/%s, want APPROVED/CASH", p.Status, p.Method)
	}
	if p.ReviewedBy == nil || *p.ReviewedBy != adminID {
		t.Error("payment not attributed to the attesting admin")
	}

	// Balance invariant must hold after the write
	updated, err := f.users.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !installments.BalanceConsistent(updated.TotalAmount, updated.PaidAmount, updated.Balance) {
		t.Errorf("balance invariant broken: total %v, paid %v, balance %v",
			updated.TotalAmount, updated.PaidAmount, updated.Balance)
	}
}

func TestSubmitCashPayment_MultipleInstallmentsToZeroBalance(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.seedStudent(t, "30123456", 50000, 3)
	ctx := context.Background()

	result, err := f.svc.SubmitCashPayment(ctx, &CashPaymentInput{
		DNI:                "30123456",
		InstallmentNumbers: []int{1, 2, 3},
	}, 99)
	if err != nil {
		t.Fatalf("SubmitCashPayment() error = %v", err)
	}

	if !centsEqual(result.Amount, 50000) {
		t.Errorf("Amount = %v, want 50000 (remainder cents included)", result.Amount)
	}
	if !centsEqual(result.Balance, 0) {
		t.Errorf("Balance = %v, want 0", result.Balance)
	}

	schedule, err := f.svc.GetSchedule(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetSchedule() error = %v", err)
	}
	for i, inst := range schedule.Installments {
		if inst.Status != installments.StatusPaid {
			t.Errorf("installment %d status = %q, want PAID", i+1, inst.Status)
		}
	}
}

func TestSubmitCashPayment_AlreadyPaidInstallment(t *testing.T) {
	f := newPaymentFixture(t)
	f.seedStudent(t, "30123456", 50000, 3)
	ctx := context.Background()

	if _, err := f.svc.SubmitCashPayment(ctx, &CashPaymentInput{
		DNI:                "30123456",
		InstallmentNumbers: []int{2},
	}, 99); err != nil {
		t.Fatalf("first payment error = %v", err)
	}

	_, err := f.svc.SubmitCashPayment(ctx, &CashPaymentInput{
		DNI:                "30123456",
		InstallmentNumbers: []int{2},
	}, 99)
	if !errors.Is(err, installments.ErrAlreadyPaid) {
		t.Errorf("repeat payment error = %v, want ErrAlreadyPaid", err)
	}
}

func TestSubmitCashPayment_InvalidSelections(t *testing.T) {
	f := newPaymentFixture(t)
	f.seedStudent(t, "30123456", 50000, 3)
	ctx := context.Background()

	cases := []struct {
		name    string
		numbers []int
		wantErr error
	}{
		{"out of range", []int{4}, installments.ErrInvalidNumber},
		{"zero", []int{0}, installments.ErrInvalidNumber},
		{"duplicate selection", []int{1, 1}, installments.ErrDuplicateSelection},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.SubmitCashPayment(ctx, &CashPaymentInput{
				DNI:                "30123456",
				InstallmentNumbers: tc.numbers,
			}, 99)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSubmitCashPayment_UnknownStudent(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.SubmitCashPayment(context.Background(), &CashPaymentInput{
		DNI:                "99999999",
		InstallmentNumbers: []int{1},
	}, 99)
	if !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("error = %v, want ErrStudentNotFound", err)
	}
}

func TestRejectPayment(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.seedStudent(t, "30123456", 50000, 3)
	ctx := context.Background()

	one := 1
	pending := &models.Payment{
		UserID:            user.ID,
		Amount:            16666.66,
		Status:            models.PaymentStatusPending,
		Method:            models.PaymentMethodGateway,
		InstallmentNumber: &one,
	}
	if err := f.payments.Create(ctx, pending); err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	rejected, err := f.svc.RejectPayment(ctx, pending.ID, &RejectInput{Reason: "comprobante ilegible"}, 99)
	if err != nil {
		t.Fatalf("RejectPayment() error = %v", err)
	}
	if rejected.Status != models.PaymentStatusRejected {
		t.Errorf("status = %q, want REJECTED", rejected.Status)
	}

	// Rejection never touches the balance
	updated, _ := f.users.GetByID(ctx, user.ID)
	if !centsEqual(updated.Balance, 50000) {
		t.Errorf("balance = %v, want untouched 50000", updated.Balance)
	}

	// Terminal: a second review is refused
	if _, err := f.svc.RejectPayment(ctx, pending.ID, &RejectInput{Reason: "otra vez"}, 99); !errors.Is(err, ErrPaymentNotPending) {
		t.Errorf("second rejection error = %v, want ErrPaymentNotPending", err)
	}

	// The rejected installment is payable again
	if _, err := f.svc.SubmitCashPayment(ctx, &CashPaymentInput{
		DNI:                "30123456",
		InstallmentNumbers: []int{1},
	}, 99); err != nil {
		t.Errorf("paying a rejected installment error = %v, want nil", err)
	}
}

func TestListPayments_Pagination(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.seedStudent(t, "30123456", 50000, 5)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		n := i
		if err := f.payments.Create(ctx, &models.Payment{
			UserID:            user.ID,
			Amount:            10000,
			Status:            models.PaymentStatusPending,
			Method:            models.PaymentMethodGateway,
			InstallmentNumber: &n,
		}); err != nil {
			t.Fatalf("seed payment %d: %v", i, err)
		}
	}

	out, err := f.svc.ListPayments(ctx, &ListPaymentsInput{Page: 2, Limit: 2, Status: models.PaymentStatusPending})
	if err != nil {
		t.Fatalf("ListPayments() error = %v", err)
	}
	if out.Total != 5 || len(out.Payments) != 2 || out.TotalPages != 3 {
		t.Errorf("got total %d, page size %d, pages %d; want 5, 2, 3",
			out.Total, len(out.Payments), out.TotalPages)
	}
}
