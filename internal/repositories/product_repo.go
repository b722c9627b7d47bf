package repositories

import (
	"context"

	"market/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	// AdjustStock adds delta (negative to withdraw) to the product's stock.
	AdjustStock(ctx context.Context, id string, delta int) error
}
