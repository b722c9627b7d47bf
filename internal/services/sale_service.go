package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"market/internal/models"
	"market/internal/repositories"

	"github.com/rs/zerolog/log"
)

// SaleService handles sale registration and the stock movements it causes.
type SaleService struct {
	saleRepo    repositories.SaleRepository
	productRepo repositories.ProductRepository
	tx          repositories.Transactor
	publisher   EventPublisher
	now         func() time.Time
}

// NewSaleService creates a new SaleService. publisher may be nil.
func NewSaleService(saleRepo repositories.SaleRepository, productRepo repositories.ProductRepository, tx repositories.Transactor, publisher EventPublisher) *SaleService {
	return &SaleService{
		saleRepo:    saleRepo,
		productRepo: productRepo,
		tx:          tx,
		publisher:   publisher,
		now:         time.Now,
	}
}

// GetAllSales retrieves all sales.
func (s *SaleService) GetAllSales(ctx context.Context) ([]models.Sale, error) {
	return s.saleRepo.GetAll(ctx)
}

// GetSaleByID retrieves a single sale by its ID.
func (s *SaleService) GetSaleByID(ctx context.Context, id string) (*models.Sale, error) {
	return s.saleRepo.GetByID(ctx, id)
}

// CreateSale sells req.QuantityProduct units of req.IDProduct. The sale is
// stored and the stock withdrawn in the same unit of work.
func (s *SaleService) CreateSale(ctx context.Context, req models.SaleRequest) (*models.Sale, error) {
	if req.QuantityProduct <= 0 {
		return nil, ErrInvalidQuantity
	}

	var sale *models.Sale
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, products repositories.ProductRepository, sales repositories.SaleRepository) error {
		product, err := products.GetByID(ctx, req.IDProduct)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrProductNotFound, req.IDProduct)
			}
			return err
		}
		if product.QuantityInStock < req.QuantityProduct {
			return fmt.Errorf("%w for product %s (requested: %d, available: %d)",
				ErrInsufficientStock, product.Name, req.QuantityProduct, product.QuantityInStock)
		}

		sale = &models.Sale{
			ProductID:       product.ID,
			QuantityProduct: req.QuantityProduct,
			SaleValue:       SaleValue(product.Price, req.QuantityProduct),
			DateSale:        s.now(),
		}
		if err := sales.Create(ctx, sale); err != nil {
			return err
		}
		return products.AdjustStock(ctx, product.ID, -req.QuantityProduct)
	})
	if err != nil {
		return nil, err
	}

	s.publish(EventSaleCreated, *sale)
	return sale, nil
}

// UpdateSale points the sale at req.IDProduct and, when the quantity
// changes, reprices it and moves the difference in and out of stock.
// The stock check compares available stock with the sale's current
// quantity; when it fails (or the product is gone) quantity and value are
// left as they were. The sale date is always refreshed.
func (s *SaleService) UpdateSale(ctx context.Context, id string, req models.SaleRequest) (*models.Sale, error) {
	if req.QuantityProduct <= 0 {
		return nil, ErrInvalidQuantity
	}

	var sale *models.Sale
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, products repositories.ProductRepository, sales repositories.SaleRepository) error {
		existing, err := sales.GetByID(ctx, id)
		if err != nil {
			return err
		}
		existing.ProductID = req.IDProduct

		if req.QuantityProduct != existing.QuantityProduct {
			diff := req.QuantityProduct - existing.QuantityProduct
			product, err := products.GetByID(ctx, existing.ProductID)
			switch {
			case errors.Is(err, repositories.ErrNotFound):
				log.Warn().Str("sale_id", id).Str("product_id", existing.ProductID).Msg("product missing, sale quantity unchanged")
			case err != nil:
				return err
			case product.QuantityInStock >= existing.QuantityProduct:
				existing.QuantityProduct = req.QuantityProduct
				existing.SaleValue = SaleValue(product.Price, existing.QuantityProduct)
				if err := products.AdjustStock(ctx, product.ID, -diff); err != nil {
					return err
				}
			default:
				log.Warn().Str("sale_id", id).Int("available", product.QuantityInStock).
					Msg("insufficient stock, sale quantity unchanged")
			}
		}

		existing.DateSale = s.now()
		if err := sales.Update(ctx, existing); err != nil {
			return err
		}
		sale = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(EventSaleUpdated, *sale)
	return sale, nil
}

// DeleteSale deletes a sale by its ID. Stock is not restored.
func (s *SaleService) DeleteSale(ctx context.Context, id string) error {
	sale, err := s.saleRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.saleRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(EventSaleDeleted, *sale)
	return nil
}
