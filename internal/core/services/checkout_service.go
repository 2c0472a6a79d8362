package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"escolapay/internal/adapters/persistence/models"
	"escolapay/internal/adapters/persistence/repositories"
	"escolapay/internal/config"
	"escolapay/internal/core/installments"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"gorm.io/gorm"
)

// Checkout errors
var (
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
	ErrUnknownReference     = errors.New("unknown external reference")
)

// CheckoutService creates hosted checkout sessions and reconciles the
// asynchronous gateway notifications against them.
type CheckoutService struct {
	paymentRepo repositories.PaymentRepository
	userRepo    repositories.UserRepository
	cfg         *config.Config
	snapClient  snap.Client
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	paymentRepo repositories.PaymentRepository,
	userRepo repositories.UserRepository,
	cfg *config.Config,
) *CheckoutService {
	s := &CheckoutService{
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		cfg:         cfg,
	}

	env := midtrans.Sandbox
	if cfg.Gateway.Production {
		env = midtrans.Production
	}
	s.snapClient.New(cfg.Gateway.ServerKey, env)

	return s
}

// CheckoutInput selects the installments to pay online
type CheckoutInput struct {
	InstallmentNumbers []int `json:"installment_numbers" validate:"required,min=1,dive,gte=1"`
}

// CheckoutSession is what the client needs to redirect to the gateway
type CheckoutSession struct {
	Token             string  `json:"token"`
	RedirectURL       string  `json:"redirect_url"`
	ExternalReference string  `json:"external_reference"`
	Amount            float64 `json:"amount"`
}

// CreateCheckout validates the selection against the schedule, records one
// PENDING payment per installment under a fresh external reference, and
// opens the gateway session. The balance is untouched until the webhook
// confirms.
func (s *CheckoutService) CreateCheckout(ctx context.Context, userID uint, input *CheckoutInput) (*CheckoutSession, error) {
	if s.cfg.Gateway.ServerKey == "" {
		return nil, ErrGatewayNotConfigured
	}

	student, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if !student.IsStudent() {
		return nil, ErrNotAStudent
	}

	history, err := s.paymentRepo.ListByUser(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	schedule, err := installments.Build(student.TotalAmount, student.Installments, toRecords(history))
	if err != nil {
		return nil, err
	}

	if err := schedule.Validate(input.InstallmentNumbers); err != nil {
		return nil, err
	}

	ref := uuid.New().String()
	amount := schedule.AmountFor(input.InstallmentNumbers)

	items := make([]midtrans.ItemDetails, 0, len(input.InstallmentNumbers))
	var gross int64
	for _, k := range input.InstallmentNumbers {
		number := k
		inst := schedule.Installments[number-1]

		if err := s.paymentRepo.Create(ctx, &models.Payment{
			UserID:            student.ID,
			Amount:            inst.Amount,
			Status:            models.PaymentStatusPending,
			Method:            models.PaymentMethodGateway,
			InstallmentNumber: &number,
			ExternalReference: ref,
		}); err != nil {
			return nil, err
		}

		// Gateway amounts are charged in whole currency units
		price := int64(math.Round(inst.Amount))
		gross += price
		items = append(items, midtrans.ItemDetails{
			ID:    fmt.Sprintf("installment-%d", number),
			Name:  fmt.Sprintf("Cuota %d de %d", number, schedule.Count),
			Price: price,
			Qty:   1,
		})
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  ref,
			GrossAmt: gross,
		},
		Items: &items,
		CustomerDetail: &midtrans.CustomerDetails{
			FName: student.FirstName,
			LName: student.LastName,
			Email: student.Email,
		},
	}
	if s.cfg.Gateway.SuccessURL != "" {
		req.Callbacks = &snap.Callbacks{Finish: s.cfg.Gateway.SuccessURL}
	}

	resp, snapErr := s.snapClient.CreateTransaction(req)
	if snapErr != nil {
		// The pending rows stay: a later retry reuses the schedule state and
		// the stale session rows expire through the webhook or admin review.
		return nil, snapErr
	}

	log.Printf("✅ Checkout session created: DNI %s, ref %s, amount %.2f",
		student.DNI, ref, amount)

	return &CheckoutSession{
		Token:             resp.Token,
		RedirectURL:       resp.RedirectURL,
		ExternalReference: ref,
		Amount:            amount,
	}, nil
}

// NotificationInput is the gateway webhook payload subset this system reads
type NotificationInput struct {
	OrderID           string `json:"order_id" validate:"required"`
	TransactionStatus string `json:"transaction_status" validate:"required"`
	FraudStatus       string `json:"fraud_status,omitempty"`
}

// HandleNotification reconciles a gateway notification. Settlements approve
// the session's PENDING payments and apply the balance update; terminal
// failures reject them; anything else is acknowledged without mutation.
// Safe to replay: only PENDING rows transition.
func (s *CheckoutService) HandleNotification(ctx context.Context, input *NotificationInput) error {
	rows, err := s.paymentRepo.ListByExternalReference(ctx, input.OrderID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrUnknownReference
	}

	now := time.Now()

	switch input.TransactionStatus {
	case "capture":
		if input.FraudStatus != "" && input.FraudStatus != "accept" {
			return nil
		}
		fallthrough
	case "settlement":
		approved, err := s.paymentRepo.ApproveByExternalReference(ctx, input.OrderID, now)
		if err != nil {
			return err
		}
		if approved > 0 {
			log.Printf("✅ Gateway payment settled: ref %s, amount %.2f", input.OrderID, approved)
		} else {
			log.Printf("ℹ️ Repeat notification for ref %s ignored", input.OrderID)
		}
		return nil

	case "deny", "cancel", "expire", "failure":
		if err := s.paymentRepo.RejectByExternalReference(ctx, input.OrderID, "gateway: "+input.TransactionStatus, now); err != nil {
			return err
		}
		log.Printf("⚠️ Gateway payment %s: ref %s", input.TransactionStatus, input.OrderID)
		return nil

	default:
		// pending / authorize and friends: nothing to reconcile yet
		return nil
	}
}
