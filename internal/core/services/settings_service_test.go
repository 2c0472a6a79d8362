package services

import (
	"context"
	"errors"
	"testing"

	"escolapay/internal/adapters/persistence/models"
)

func TestUpdateSetting(t *testing.T) {
	svc := NewSettingsService(newFakeSettingsRepo())
	ctx := context.Background()

	cases := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{"valid due day", models.SettingPaymentDueDay, "15", nil},
		{"due day too high", models.SettingPaymentDueDay, "29", ErrInvalidSettingValue},
		{"due day not numeric", models.SettingPaymentDueDay, "quince", ErrInvalidSettingValue},
		{"valid late fee", models.SettingLateFeePercentage, "7.5", nil},
		{"negative percentage", models.SettingLateFeePercentage, "-1", ErrInvalidSettingValue},
		{"valid recalculation", models.SettingRecalculationPercentage, "12", nil},
		{"percentage over 100", models.SettingRecalculationPercentage, "150", ErrInvalidSettingValue},
		{"unknown key", "mystery_knob", "1", ErrUnknownSetting},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.UpdateSetting(ctx, tc.key, &UpdateSettingInput{Value: tc.value})
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("UpdateSetting(%s=%s) error = %v, want %v", tc.key, tc.value, err, tc.wantErr)
			}
		})
	}
}

func TestUpdatePrice_ReadsRecalcSetting(t *testing.T) {
	users := newFakeUserRepo()
	products := newFakeProductRepo()
	settings := newFakeSettingsRepo()
	svc := NewProductService(products, users, settings)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, &ProductInput{Name: "Campera", Price: 48000})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}
	if created.BasePrice != 48000 || created.CurrentPrice != 48000 {
		t.Errorf("creation price snapshot = %v/%v, want 48000/48000", created.BasePrice, created.CurrentPrice)
	}

	result, err := svc.UpdatePrice(ctx, created.ID, &UpdatePriceInput{Price: 52000})
	if err != nil {
		t.Fatalf("UpdatePrice() error = %v", err)
	}
	if result.RecalcPercentage != 10 {
		t.Errorf("RecalcPercentage = %v, want the configured 10", result.RecalcPercentage)
	}
	if result.Product.CurrentPrice != 52000 {
		t.Errorf("CurrentPrice = %v, want 52000", result.Product.CurrentPrice)
	}
	if result.Product.BasePrice != 48000 {
		t.Errorf("BasePrice = %v, want the untouched 48000", result.Product.BasePrice)
	}

	t.Run("broken setting refused", func(t *testing.T) {
		settings.values[models.SettingRecalculationPercentage] = "diez"
		_, err := svc.UpdatePrice(ctx, created.ID, &UpdatePriceInput{Price: 53000})
		if !errors.Is(err, ErrInvalidRecalcSetting) {
			t.Errorf("UpdatePrice() error = %v, want ErrInvalidRecalcSetting", err)
		}
	})
}
