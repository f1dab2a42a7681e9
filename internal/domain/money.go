package domain

import "github.com/shopspring/decimal"

// Stored carts and orders carry prices as JSON numbers, not strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Money is a monetary amount in the store currency.
type Money = decimal.Decimal

// MoneyPtr returns a pointer to a copy of m, for optional cached price fields.
func MoneyPtr(m Money) *Money {
	return &m
}
