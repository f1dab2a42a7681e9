package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
)

// CartTotals is the order-level price summary shown by every cart surface.
type CartTotals struct {
	Lines       []LineBreakdown `json:"lines"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ItemCount   int             `json:"itemCount"`
	Discount    decimal.Decimal `json:"discount"`
	ShippingFee decimal.Decimal `json:"shippingFee"`
	GrandTotal  decimal.Decimal `json:"grandTotal"`
}

// ResolveCart sums resolved line totals and applies the coupon discount and
// shipping fee. The grand total is clamped at zero however large the discount.
// Inputs are never modified, so repeated calls give identical results.
func ResolveCart(items []domain.CartItem, coupon *domain.Coupon, shipping *domain.ShippingRegion) (CartTotals, error) {
	totals := CartTotals{
		Lines:       make([]LineBreakdown, 0, len(items)),
		Subtotal:    decimal.Zero,
		Discount:    decimal.Zero,
		ShippingFee: decimal.Zero,
	}

	sum := LineTotal{amount: decimal.Zero}
	for _, item := range items {
		line, err := ResolveLineItem(item)
		if err != nil {
			return CartTotals{}, err
		}
		totals.Lines = append(totals.Lines, line)
		sum = sum.Add(line.LineTotal)
		totals.ItemCount += item.Quantity
	}
	totals.Subtotal = sum.Amount()

	if coupon != nil {
		totals.Discount = coupon.DiscountAmount
	}
	if shipping != nil {
		totals.ShippingFee = shipping.Price
	}

	totals.GrandTotal = decimal.Max(decimal.Zero, totals.Subtotal.Sub(totals.Discount).Add(totals.ShippingFee))
	return totals, nil
}

// Subtotal is ResolveCart without coupon or shipping, for coupon validation requests.
func Subtotal(items []domain.CartItem) (decimal.Decimal, error) {
	totals, err := ResolveCart(items, nil, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return totals.Subtotal, nil
}
