// Package installments holds the reconciliation rules: how a student's total
// splits into per-installment amounts, how payments map onto installment
// numbers, and how paid/pending totals and the running balance derive from
// the payment history.
package installments

import (
	"errors"
	"fmt"
	"math"
)

// Reconciliation errors
var (
	ErrInvalidCount       = errors.New("installment count must be at least 1")
	ErrInvalidNumber      = errors.New("installment number out of range")
	ErrAlreadyPaid        = errors.New("installment already paid")
	ErrNoInstallments     = errors.New("no installment numbers given")
	ErrDuplicateSelection = errors.New("installment number selected twice")
)

// Status of a single installment
type Status string

const (
	StatusPaid          Status = "PAID"
	StatusPendingReview Status = "PENDING_REVIEW"
	StatusUnpaid        Status = "UNPAID"
)

// PaymentRecord is the projection of a payment row the rules need.
type PaymentRecord struct {
	ID                uint
	Status            string // PENDING | APPROVED | REJECTED
	InstallmentNumber *int
	Amount            float64
}

// Installment is one scheduled fraction of the total obligation.
type Installment struct {
	Number    int     `json:"number"`
	Amount    float64 `json:"amount"`
	Status    Status  `json:"status"`
	PaymentID uint    `json:"payment_id,omitempty"`
}

// Schedule is the derived per-student installment state.
type Schedule struct {
	Total         float64       `json:"total"`
	Count         int           `json:"count"`
	Installments  []Installment `json:"installments"`
	PaidTotal     float64       `json:"paid_total"`
	PendingTotal  float64       `json:"pending_total"`
	RejectedTotal float64       `json:"rejected_total"`

	// Duplicates lists installment numbers referenced by more than one
	// APPROVED payment. The store never prevents this; it is surfaced as a
	// data inconsistency and the first match wins for status purposes.
	Duplicates []int `json:"duplicates,omitempty"`
}

// Split divides total into n equal installment amounts. The division is done
// in integer cents, floored per installment, with the remainder cents added
// to the last installment so the amounts always sum back to the total.
func Split(total float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, ErrInvalidCount
	}

	totalCents := toCents(total)
	base := totalCents / int64(n)
	remainder := totalCents - base*int64(n)

	amounts := make([]float64, n)
	for i := range amounts {
		amounts[i] = fromCents(base)
	}
	amounts[n-1] = fromCents(base + remainder)

	return amounts, nil
}

// Build derives the schedule for a student from the total obligation, the
// installment count and the full payment history. An installment is PAID iff
// an APPROVED payment references its number; a PENDING payment referencing it
// marks it PENDING_REVIEW. Payments without an installment number count
// toward the totals but settle no installment.
func Build(total float64, n int, payments []PaymentRecord) (*Schedule, error) {
	amounts, err := Split(total, n)
	if err != nil {
		return nil, err
	}

	s := &Schedule{
		Total:        total,
		Count:        n,
		Installments: make([]Installment, n),
	}

	approved := make(map[int]uint, n)
	pending := make(map[int]uint, n)
	seen := make(map[int]int, n)

	for _, p := range payments {
		switch p.Status {
		case "APPROVED":
			s.PaidTotal = fromCents(toCents(s.PaidTotal) + toCents(p.Amount))
			if p.InstallmentNumber == nil {
				continue
			}
			k := *p.InstallmentNumber
			seen[k]++
			if _, ok := approved[k]; !ok {
				// first match wins
				approved[k] = p.ID
			}
		case "PENDING":
			s.PendingTotal = fromCents(toCents(s.PendingTotal) + toCents(p.Amount))
			if p.InstallmentNumber == nil {
				continue
			}
			k := *p.InstallmentNumber
			if _, ok := pending[k]; !ok {
				pending[k] = p.ID
			}
		case "REJECTED":
			s.RejectedTotal = fromCents(toCents(s.RejectedTotal) + toCents(p.Amount))
		}
	}

	for k, count := range seen {
		if count > 1 {
			s.Duplicates = append(s.Duplicates, k)
		}
	}

	for i := range s.Installments {
		number := i + 1
		inst := Installment{
			Number: number,
			Amount: amounts[i],
			Status: StatusUnpaid,
		}
		if id, ok := approved[number]; ok {
			inst.Status = StatusPaid
			inst.PaymentID = id
		} else if id, ok := pending[number]; ok {
			inst.Status = StatusPendingReview
			inst.PaymentID = id
		}
		s.Installments[i] = inst
	}

	return s, nil
}

// IsPaid reports whether installment k is settled by an approved payment.
func (s *Schedule) IsPaid(k int) bool {
	if k < 1 || k > s.Count {
		return false
	}
	return s.Installments[k-1].Status == StatusPaid
}

// Validate checks a selection of installment numbers for a new payment:
// every number must be in range, unique within the selection, and not
// already settled.
func (s *Schedule) Validate(numbers []int) error {
	if len(numbers) == 0 {
		return ErrNoInstallments
	}

	chosen := make(map[int]bool, len(numbers))
	for _, k := range numbers {
		if k < 1 || k > s.Count {
			return fmt.Errorf("%w: %d (schedule has %d)", ErrInvalidNumber, k, s.Count)
		}
		if chosen[k] {
			return fmt.Errorf("%w: %d", ErrDuplicateSelection, k)
		}
		chosen[k] = true
		if s.IsPaid(k) {
			return fmt.Errorf("%w: %d", ErrAlreadyPaid, k)
		}
	}

	return nil
}

// AmountFor sums the scheduled amounts of the selected installment numbers.
// Callers must Validate the selection first.
func (s *Schedule) AmountFor(numbers []int) float64 {
	var cents int64
	for _, k := range numbers {
		if k >= 1 && k <= s.Count {
			cents += toCents(s.Installments[k-1].Amount)
		}
	}
	return fromCents(cents)
}

// BalanceConsistent reports whether balance == total - paid for the given
// snapshot, comparing in cents to sidestep float drift.
func BalanceConsistent(total, paid, balance float64) bool {
	return toCents(balance) == toCents(total)-toCents(paid)
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func fromCents(c int64) float64 {
	return float64(c) / 100
}
