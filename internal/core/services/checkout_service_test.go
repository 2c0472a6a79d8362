package services

import (
	"context"
	"errors"
	"testing"

	"escolapay/internal/adapters/persistence/models"
	"escolapay/internal/core/installments"
)

type checkoutFixture struct {
	svc      *CheckoutService
	users    *fakeUserRepo
	payments *fakePaymentRepo
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	users := newFakeUserRepo()
	payments := newFakePaymentRepo(users)
	cfg := testConfig()
	cfg.Gateway.ServerKey = "SB-test-key"
	return &checkoutFixture{
		svc:      NewCheckoutService(payments, users, cfg),
		users:    users,
		payments: payments,
	}
}

func (f *checkoutFixture) seedSession(t *testing.T, ref string) *models.User {
	t.Helper()
	ctx := context.Background()

	user := &models.User{
		DNI:          "30123456",
		FirstName:    "Ana",
		LastName:     "García",
		Role:         models.RoleStudent,
		TotalAmount:  50000,
		Balance:      50000,
		Installments: 3,
	}
	if err := f.users.Create(ctx, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	one := 1
	if err := f.payments.Create(ctx, &models.Payment{
		UserID:            user.ID,
		Amount:            16666.66,
		Status:            models.PaymentStatusPending,
		Method:            models.PaymentMethodGateway,
		InstallmentNumber: &one,
		ExternalReference: ref,
	}); err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return user
}

func TestHandleNotification_Settlement(t *testing.T) {
	f := newCheckoutFixture(t)
	user := f.seedSession(t, "ref-settle")
	ctx := context.Background()

	err := f.svc.HandleNotification(ctx, &NotificationInput{
		OrderID:           "ref-settle",
		TransactionStatus: "settlement",
	})
	if err != nil {
		t.Fatalf("HandleNotification() error = %v", err)
	}

	rows, _ := f.payments.ListByExternalReference(ctx, "ref-settle")
	if rows[0].Status != models.PaymentStatusApproved {
		t.Errorf("payment status = %q, want APPROVED", rows[0].Status)
	}

	updated, _ := f.users.GetByID(ctx, user.ID)
	if !centsEqual(updated.Balance, 33333.34) {
		t.Errorf("balance = %v, want 33333.34", updated.Balance)
	}
	if !installments.BalanceConsistent(updated.TotalAmount, updated.PaidAmount, updated.Balance) {
		t.Error("balance invariant broken after settlement")
	}
}

func TestHandleNotification_ReplayIsIdempotent(t *testing.T) {
	f := newCheckoutFixture(t)
	user := f.seedSession(t, "ref-replay")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := f.svc.HandleNotification(ctx, &NotificationInput{
			OrderID:           "ref-replay",
			TransactionStatus: "settlement",
		}); err != nil {
			t.Fatalf("replay %d error = %v", i, err)
		}
	}

	updated, _ := f.users.GetByID(ctx, user.ID)
	if !centsEqual(updated.PaidAmount, 16666.66) {
		t.Errorf("paid amount after replays = %v, want a single 16666.66", updated.PaidAmount)
	}
}

func TestHandleNotification_TerminalFailures(t *testing.T) {
	ctx := context.Background()

	for _, status := range []string{"deny", "cancel", "expire", "failure"} {
		t.Run(status, func(t *testing.T) {
			f := newCheckoutFixture(t)
			user := f.seedSession(t, "ref-"+status)

			err := f.svc.HandleNotification(ctx, &NotificationInput{
				OrderID:           "ref-" + status,
				TransactionStatus: status,
			})
			if err != nil {
				t.Fatalf("HandleNotification() error = %v", err)
			}

			rows, _ := f.payments.ListByExternalReference(ctx, "ref-"+status)
			if rows[0].Status != models.PaymentStatusRejected {
				t.Errorf("payment status = %q, want REJECTED", rows[0].Status)
			}

			updated, _ := f.users.GetByID(ctx, user.ID)
			if !centsEqual(updated.Balance, 50000) {
				t.Errorf("balance = %v, want untouched 50000", updated.Balance)
			}
		})
	}
}

func TestHandleNotification_PendingStatusNoMutation(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedSession(t, "ref-pending")
	ctx := context.Background()

	err := f.svc.HandleNotification(ctx, &NotificationInput{
		OrderID:           "ref-pending",
		TransactionStatus: "pending",
	})
	if err != nil {
		t.Fatalf("HandleNotification() error = %v", err)
	}

	rows, _ := f.payments.ListByExternalReference(ctx, "ref-pending")
	if rows[0].Status != models.PaymentStatusPending {
		t.Errorf("payment status = %q, want still PENDING", rows[0].Status)
	}
}

func TestHandleNotification_UnknownReference(t *testing.T) {
	f := newCheckoutFixture(t)

	err := f.svc.HandleNotification(context.Background(), &NotificationInput{
		OrderID:           "no-such-ref",
		TransactionStatus: "settlement",
	})
	if !errors.Is(err, ErrUnknownReference) {
		t.Errorf("HandleNotification() error = %v, want ErrUnknownReference", err)
	}
}
