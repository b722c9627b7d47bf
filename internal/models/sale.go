package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SaleDateLayout is the wire format of Sale.DateSale (dd-MM-yyyy HH:mm:ss).
const SaleDateLayout = "02-01-2006 15:04:05"

// Sale records a quantity of one product sold at a computed value.
type Sale struct {
	ID              string          `gorm:"primaryKey;type:varchar(36)"`
	ProductID       string          `gorm:"type:varchar(36);not null;index"`
	QuantityProduct int             `gorm:"not null"`
	SaleValue       decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	DateSale        time.Time       `gorm:"not null"`
}

func (Sale) TableName() string { return "sales" }

// SaleRequest is the body accepted by sale create and update.
// QuantityProduct is checked by the service, not the validator: a
// non-positive quantity yields no sale rather than a bad request.
type SaleRequest struct {
	IDProduct       string `json:"idProduct" validate:"required"`
	QuantityProduct int    `json:"quantityProduct"`
}

// SaleResponse is the JSON representation of a Sale.
type SaleResponse struct {
	ID              string          `json:"id"`
	IDProduct       string          `json:"idProduct"`
	QuantityProduct int             `json:"quantityProduct"`
	SaleValue       decimal.Decimal `json:"saleValue"`
	DateSale        SaleTime        `json:"dateSale"`
}

// ToResponse maps s to its JSON representation.
func (s Sale) ToResponse() SaleResponse {
	return SaleResponse{
		ID:              s.ID,
		IDProduct:       s.ProductID,
		QuantityProduct: s.QuantityProduct,
		SaleValue:       s.SaleValue,
		DateSale:        SaleTime(s.DateSale),
	}
}

// SaleTime is a time.Time encoded with SaleDateLayout.
type SaleTime time.Time

func (t SaleTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(SaleDateLayout) + `"`), nil
}

func (t *SaleTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*t = SaleTime(time.Time{})
		return nil
	}
	parsed, err := time.ParseInLocation(SaleDateLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("invalid dateSale %q: %w", s, err)
	}
	*t = SaleTime(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t SaleTime) Time() time.Time { return time.Time(t) }
