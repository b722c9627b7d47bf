package repositories

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// TxFunc receives repositories bound to the running unit of work.
type TxFunc func(ctx context.Context, products ProductRepository, sales SaleRepository) error

// Transactor runs a function as a single unit of work over products and sales.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn TxFunc) error
}

// GORMTransactor runs units of work inside a database transaction.
type GORMTransactor struct {
	db *gorm.DB
}

// NewGORMTransactor creates a new GORMTransactor.
func NewGORMTransactor(db *gorm.DB) *GORMTransactor {
	return &GORMTransactor{db: db}
}

// WithinTransaction commits when fn returns nil and rolls back otherwise.
func (t *GORMTransactor) WithinTransaction(ctx context.Context, fn TxFunc) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewGORMProductRepository(tx), NewGORMSaleRepository(tx))
	})
}

// MemoryTransactor serializes units of work over in-memory repositories.
// Writes made before a failure are not rolled back.
type MemoryTransactor struct {
	products *MemoryProductRepository
	sales    *MemorySaleRepository
	mu       sync.Mutex
}

// NewMemoryTransactor creates a new MemoryTransactor.
func NewMemoryTransactor(products *MemoryProductRepository, sales *MemorySaleRepository) *MemoryTransactor {
	return &MemoryTransactor{products: products, sales: sales}
}

// WithinTransaction runs fn while holding the transactor lock.
func (t *MemoryTransactor) WithinTransaction(ctx context.Context, fn TxFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx, t.products, t.sales)
}
