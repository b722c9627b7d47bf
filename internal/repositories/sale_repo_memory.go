package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"market/internal/models"

	"github.com/google/uuid"
)

// MemorySaleRepository is an in-memory implementation of SaleRepository.
type MemorySaleRepository struct {
	sales map[string]models.Sale
	mu    sync.RWMutex
}

// NewMemorySaleRepository creates a new instance of MemorySaleRepository.
func NewMemorySaleRepository() *MemorySaleRepository {
	return &MemorySaleRepository{
		sales: make(map[string]models.Sale),
	}
}

// GetAll returns all sales ordered by sale date.
func (r *MemorySaleRepository) GetAll(_ context.Context) ([]models.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	saleList := make([]models.Sale, 0, len(r.sales))
	for _, s := range r.sales {
		saleList = append(saleList, s)
	}
	sort.Slice(saleList, func(i, j int) bool {
		if saleList[i].DateSale.Equal(saleList[j].DateSale) {
			return saleList[i].ID < saleList[j].ID
		}
		return saleList[i].DateSale.Before(saleList[j].DateSale)
	})
	return saleList, nil
}

// GetByID returns a sale by its ID.
func (r *MemorySaleRepository) GetByID(_ context.Context, id string) (*models.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sale, ok := r.sales[id]
	if !ok {
		return nil, fmt.Errorf("sale with ID %s: %w", id, ErrNotFound)
	}
	return &sale, nil
}

// Create adds a new sale.
func (r *MemorySaleRepository) Create(_ context.Context, sale *models.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	r.sales[sale.ID] = *sale
	return nil
}

// Update replaces an existing sale.
func (r *MemorySaleRepository) Update(_ context.Context, sale *models.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sales[sale.ID]; !ok {
		return fmt.Errorf("sale with ID %s: %w", sale.ID, ErrNotFound)
	}
	r.sales[sale.ID] = *sale
	return nil
}

// Delete removes a sale by its ID.
func (r *MemorySaleRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sales[id]; !ok {
		return fmt.Errorf("sale with ID %s: %w", id, ErrNotFound)
	}
	delete(r.sales, id)
	return nil
}
