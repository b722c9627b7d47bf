package services

import "github.com/shopspring/decimal"

var (
	bulkDiscount      = decimal.RequireFromString("0.05") // more than 10 units
	wholesaleDiscount = decimal.RequireFromString("0.10") // more than 20 units
)

// DiscountRate returns the fraction taken off a sale of quantity units.
func DiscountRate(quantity int) decimal.Decimal {
	switch {
	case quantity > 20:
		return wholesaleDiscount
	case quantity > 10:
		return bulkDiscount
	default:
		return decimal.Zero
	}
}

// SaleValue is price * quantity minus the tier discount.
func SaleValue(price decimal.Decimal, quantity int) decimal.Decimal {
	gross := price.Mul(decimal.NewFromInt(int64(quantity)))
	return gross.Sub(gross.Mul(DiscountRate(quantity)))
}
