package services

import (
	"context"
	"fmt"

	"market/internal/models"
	"market/internal/repositories"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct stores a new, active product built from req.
func (s *ProductService) CreateProduct(ctx context.Context, req models.ProductRequest) (*models.Product, error) {
	product := &models.Product{Active: true}
	req.Apply(product)
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct replaces the editable fields of the product with the given ID.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, req models.ProductRequest) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(product)
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return product, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
