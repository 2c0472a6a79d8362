package repositories

import (
	"context"

	"escolapay/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// productRepository implements ProductRepository interface
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create creates a new product
func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// GetByID gets a product by ID
func (r *productRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// List lists all products
func (r *productRepository) List(ctx context.Context) ([]*models.Product, error) {
	var products []*models.Product
	err := r.db.WithContext(ctx).Order("name").Find(&products).Error
	return products, err
}

// Update updates a product
func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// Delete soft deletes a product
func (r *productRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, id).Error
}

// UpdatePriceAndRecalculate sets the new current price and scales the totals
// of every student referencing the product. The arithmetic runs store-side
// in one UPDATE, and the balance is rebalanced against the paid amount so
// the balance invariant holds after the recalculation.
func (r *productRepository) UpdatePriceAndRecalculate(ctx context.Context, productID uint, newPrice, recalcPct float64) (int64, error) {
	var affected int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).
			Where("id = ?", productID).
			Update("current_price", newPrice).Error; err != nil {
			return err
		}

		// MySQL applies SET clauses left to right, so balance reads the
		// already-updated total_amount.
		res := tx.Exec(
			`UPDATE users
			 SET total_amount = ROUND(total_amount * (1 + ? / 100), 2),
			     balance = total_amount - paid_amount
			 WHERE product_id = ? AND role = ? AND deleted_at IS NULL`,
			recalcPct, productID, models.RoleStudent,
		)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})

	return affected, err
}
