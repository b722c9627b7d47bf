package repositories

import (
	"context"

	"market/internal/models"
)

// SaleRepository defines the interface for sale data access.
type SaleRepository interface {
	GetAll(ctx context.Context) ([]models.Sale, error)
	GetByID(ctx context.Context, id string) (*models.Sale, error)
	Create(ctx context.Context, sale *models.Sale) error
	Update(ctx context.Context, sale *models.Sale) error
	Delete(ctx context.Context, id string) error
}
