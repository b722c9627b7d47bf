package repositories

import (
	"context"
	"errors"
	"fmt"

	"market/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMSaleRepository is a GORM implementation of SaleRepository.
type GORMSaleRepository struct {
	db *gorm.DB
}

// NewGORMSaleRepository creates a new instance of GORMSaleRepository.
func NewGORMSaleRepository(db *gorm.DB) *GORMSaleRepository {
	return &GORMSaleRepository{db: db}
}

// GetAll retrieves all sales ordered by sale date.
func (r *GORMSaleRepository) GetAll(ctx context.Context) ([]models.Sale, error) {
	var sales []models.Sale
	if err := r.db.WithContext(ctx).Order("date_sale, id").Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("failed to get all sales: %w", err)
	}
	return sales, nil
}

// GetByID retrieves a single sale by its ID.
func (r *GORMSaleRepository) GetByID(ctx context.Context, id string) (*models.Sale, error) {
	var sale models.Sale
	if err := r.db.WithContext(ctx).First(&sale, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("sale with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get sale by ID %s: %w", id, err)
	}
	return &sale, nil
}

// Create inserts a new sale.
func (r *GORMSaleRepository) Create(ctx context.Context, sale *models.Sale) error {
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(sale).Error; err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return nil
}

// Update overwrites product reference, quantity, value and date of a sale.
func (r *GORMSaleRepository) Update(ctx context.Context, sale *models.Sale) error {
	res := r.db.WithContext(ctx).Model(&models.Sale{}).Where("id = ?", sale.ID).Updates(map[string]interface{}{
		"product_id":       sale.ProductID,
		"quantity_product": sale.QuantityProduct,
		"sale_value":       sale.SaleValue,
		"date_sale":        sale.DateSale,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update sale: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("sale with ID %s: %w", sale.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a sale by its ID.
func (r *GORMSaleRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Sale{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete sale: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("sale with ID %s: %w", id, ErrNotFound)
	}
	return nil
}
