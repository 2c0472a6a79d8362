package services

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"escolapay/internal/adapters/persistence/models"
	"escolapay/internal/adapters/persistence/repositories"
	"escolapay/internal/core/domain"

	"gorm.io/gorm"
)

// Late fee service errors
var (
	ErrLateFeeSettings = errors.New("late fee settings incomplete or not numeric")
)

// LateFeeService triggers the database-side late fee procedure. The
// surcharge math lives in the procedure; this side owns the schedule, the
// settings snapshot and the audit log line.
type LateFeeService struct {
	db           *gorm.DB
	settingsRepo repositories.SettingsRepository
}

// NewLateFeeService creates a new late fee service
func NewLateFeeService(db *gorm.DB, settingsRepo repositories.SettingsRepository) *LateFeeService {
	return &LateFeeService{
		db:           db,
		settingsRepo: settingsRepo,
	}
}

// LateFeeRunResult reports one procedure run
type LateFeeRunResult struct {
	Settings     domain.LateFeeSettings `json:"settings"`
	RowsAffected int64                  `json:"rows_affected"`
	RanAt        time.Time              `json:"ran_at"`
}

// Run snapshots the settings and invokes the stored procedure. The snapshot
// is logged before the call so a surprising run can be reconstructed.
func (s *LateFeeService) Run(ctx context.Context) (*LateFeeRunResult, error) {
	settings, err := s.loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	log.Printf("ℹ️ Applying late fees: due day %d, surcharge %.2f%%",
		settings.PaymentDueDay, settings.LateFeePercentage)

	res := s.db.WithContext(ctx).Exec("CALL apply_late_fees()")
	if res.Error != nil {
		log.Printf("❌ Late fee procedure failed: %v", res.Error)
		return nil, res.Error
	}

	result := &LateFeeRunResult{
		Settings:     *settings,
		RowsAffected: res.RowsAffected,
		RanAt:        time.Now(),
	}

	log.Printf("✅ Late fees applied: %d rows affected", result.RowsAffected)
	return result, nil
}

func (s *LateFeeService) loadSettings(ctx context.Context) (*domain.LateFeeSettings, error) {
	dueDayRaw, err := s.settingsRepo.Get(ctx, models.SettingPaymentDueDay)
	if err != nil {
		return nil, ErrLateFeeSettings
	}
	lateFeeRaw, err := s.settingsRepo.Get(ctx, models.SettingLateFeePercentage)
	if err != nil {
		return nil, ErrLateFeeSettings
	}
	recalcRaw, err := s.settingsRepo.Get(ctx, models.SettingRecalculationPercentage)
	if err != nil {
		return nil, ErrLateFeeSettings
	}

	dueDay, err := strconv.Atoi(dueDayRaw)
	if err != nil {
		return nil, ErrLateFeeSettings
	}
	lateFee, err := strconv.ParseFloat(lateFeeRaw, 64)
	if err != nil {
		return nil, ErrLateFeeSettings
	}
	recalc, err := strconv.ParseFloat(recalcRaw, 64)
	if err != nil {
		return nil, ErrLateFeeSettings
	}

	return &domain.LateFeeSettings{
		PaymentDueDay:           dueDay,
		LateFeePercentage:       lateFee,
		RecalculationPercentage: recalc,
	}, nil
}
