package services

import (
	"context"
	"errors"
	"log"
	"strconv"

	"escolapay/internal/adapters/persistence/models"
	"escolapay/internal/adapters/persistence/repositories"
)

// Settings service errors
var (
	ErrUnknownSetting      = errors.New("unknown setting key")
	ErrInvalidSettingValue = errors.New("invalid setting value")
)

// SettingsService exposes the admin-editable system settings
type SettingsService struct {
	settingsRepo repositories.SettingsRepository
}

// NewSettingsService creates a new settings service
func NewSettingsService(settingsRepo repositories.SettingsRepository) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo}
}

// ListSettings lists every setting
func (s *SettingsService) ListSettings(ctx context.Context) ([]*models.SystemSetting, error) {
	return s.settingsRepo.GetAll(ctx)
}

// UpdateSettingInput represents a setting write
type UpdateSettingInput struct {
	Value string `json:"value" validate:"required"`
}

// UpdateSetting writes one known setting after validating its value against
// the key's own rules.
func (s *SettingsService) UpdateSetting(ctx context.Context, key string, input *UpdateSettingInput) error {
	if err := validateSetting(key, input.Value); err != nil {
		return err
	}

	if err := s.settingsRepo.Set(ctx, key, input.Value); err != nil {
		return err
	}

	log.Printf("✅ Setting updated: %s = %s", key, input.Value)
	return nil
}

func validateSetting(key, value string) error {
	switch key {
	case models.SettingPaymentDueDay:
		day, err := strconv.Atoi(value)
		if err != nil || day < 1 || day > 28 {
			return ErrInvalidSettingValue
		}
	case models.SettingLateFeePercentage, models.SettingRecalculationPercentage:
		pct, err := strconv.ParseFloat(value, 64)
		if err != nil || pct < 0 || pct > 100 {
			return ErrInvalidSettingValue
		}
	default:
		return ErrUnknownSetting
	}
	return nil
}
