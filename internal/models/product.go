package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices and sale values travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents an item kept in stock and offered for sale.
type Product struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name            string          `json:"name" gorm:"type:varchar(100);not null"`
	Description     string          `json:"description" gorm:"type:varchar(500)"`
	Price           decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	QuantityInStock int             `json:"quantityInStock" gorm:"not null;default:0"`
	Active          bool            `json:"active" gorm:"not null;default:true"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// TableName keeps the table name stable regardless of GORM's pluralizer.
func (Product) TableName() string { return "products" }

// ProductRequest is the body accepted by product create and update.
type ProductRequest struct {
	Name            string          `json:"name" validate:"required,min=1,max=100"`
	Description     string          `json:"description" validate:"omitempty,max=500"`
	Price           decimal.Decimal `json:"price" validate:"nonnegative"`
	QuantityInStock int             `json:"quantityInStock" validate:"gte=0"`
}

// Apply copies the request fields onto p.
func (r ProductRequest) Apply(p *Product) {
	p.Name = r.Name
	p.Description = r.Description
	p.Price = r.Price
	p.QuantityInStock = r.QuantityInStock
}
