package services

import (
	"context"
	"errors"
	"log"
	"strconv"

	"escolapay/internal/adapters/persistence/models"
	"escolapay/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Product service errors
var (
	ErrInvalidRecalcSetting = errors.New("total_recalculation_percentage setting is not numeric")
)

// ProductService manages products and the price-change recalculation
type ProductService struct {
	productRepo  repositories.ProductRepository
	userRepo     repositories.UserRepository
	settingsRepo repositories.SettingsRepository
}

// NewProductService creates a new product service
func NewProductService(
	productRepo repositories.ProductRepository,
	userRepo repositories.UserRepository,
	settingsRepo repositories.SettingsRepository,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		userRepo:     userRepo,
		settingsRepo: settingsRepo,
	}
}

// ProductInput represents product creation input
type ProductInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=150"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"required,gt=0"`
}

// CreateProduct registers a product. The creation price becomes both the
// base and the current price.
func (s *ProductService) CreateProduct(ctx context.Context, input *ProductInput) (*models.Product, error) {
	product := &models.Product{
		Name:         input.Name,
		Description:  input.Description,
		BasePrice:    input.Price,
		CurrentPrice: input.Price,
		IsActive:     true,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	log.Printf("✅ Product created: %s ($%.2f)", product.Name, product.CurrentPrice)
	return product, nil
}

// GetProduct fetches one product
func (s *ProductService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// ListProducts lists all products
func (s *ProductService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return s.productRepo.List(ctx)
}

// UpdateProductInput represents product update input. Price changes go
// through UpdatePrice instead.
type UpdateProductInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// UpdateProduct patches product metadata
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, input *UpdateProductInput) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		product.Name = input.Name
	}
	if input.Description != "" {
		product.Description = input.Description
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdatePriceInput represents a price change
type UpdatePriceInput struct {
	Price float64 `json:"price" validate:"required,gt=0"`
}

// PriceUpdateResult reports a price change and its ripple effect
type PriceUpdateResult struct {
	Product          *models.Product `json:"product"`
	RecalcPercentage float64         `json:"recalc_percentage"`
	StudentsAdjusted int64           `json:"students_adjusted"`
}

// UpdatePrice sets a product's current price and scales every referencing
// student's total by the configured recalculation percentage, rebalancing
// each against what was already paid. One transaction end to end.
func (s *ProductService) UpdatePrice(ctx context.Context, id uint, input *UpdatePriceInput) (*PriceUpdateResult, error) {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return nil, err
	}

	raw, err := s.settingsRepo.Get(ctx, models.SettingRecalculationPercentage)
	if err != nil {
		return nil, err
	}
	pct, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, ErrInvalidRecalcSetting
	}

	adjusted, err := s.productRepo.UpdatePriceAndRecalculate(ctx, id, input.Price, pct)
	if err != nil {
		return nil, err
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Product %d price set to $%.2f, %d students adjusted by %.2f%%",
		id, input.Price, adjusted, pct)

	return &PriceUpdateResult{
		Product:          product,
		RecalcPercentage: pct,
		StudentsAdjusted: adjusted,
	}, nil
}

// DeleteProduct removes a product. Refused while students reference it.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}

	count, err := s.userRepo.CountByProduct(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrHasStudents
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Printf("ℹ️ Product deleted: id %d", id)
	return nil
}
