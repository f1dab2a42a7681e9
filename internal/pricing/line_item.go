// Package pricing computes line and cart totals from cart items. Every surface
// that shows or sums a price goes through ResolveLineItem and ResolveCart.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
)

// LineBreakdown is the resolved price of one cart line. All fields except
// LineTotal are per unit.
type LineBreakdown struct {
	ItemID       string          `json:"itemId"`
	Quantity     int             `json:"quantity"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	OptionsPrice decimal.Decimal `json:"optionsPrice"`
	AddOnsPrice  decimal.Decimal `json:"addOnsPrice"`
	LineSubtotal decimal.Decimal `json:"lineSubtotal"`
	UnitPrice    UnitPrice       `json:"unitPrice"`
	LineTotal    LineTotal       `json:"lineTotal"`
}

// ResolveLineItem prices a single cart line.
//
//   - base: cached BasePrice when present, else the product snapshot price
//   - options: structured options (with legacy entries migrated in); the
//     ProductOptionsPriceModifier cache only counts when no structured list exists
//   - add-ons: cached AddOnsPrice when present, else the sum of AddOns
//   - unit price: cached TotalPrice when positive, else base+options+add-ons
//
// TotalPrice is a per-unit cache; the line total is unit price times quantity.
// Only a quantity below 1 or a negative add-on price is an error.
func ResolveLineItem(item domain.CartItem) (LineBreakdown, error) {
	if item.Quantity < 1 {
		return LineBreakdown{}, fmt.Errorf("line %q: %w", item.ID, ErrInvalidQuantity)
	}

	base := item.Product.Price
	if item.BasePrice != nil {
		base = *item.BasePrice
	}

	options := optionsPrice(item)

	addOns, err := addOnsPrice(item)
	if err != nil {
		return LineBreakdown{}, fmt.Errorf("line %q: %w", item.ID, err)
	}

	subtotal := base.Add(options).Add(addOns)
	unit := NewUnitPrice(subtotal)
	if item.TotalPrice != nil && item.TotalPrice.IsPositive() {
		unit = NewUnitPrice(*item.TotalPrice)
	}

	return LineBreakdown{
		ItemID:       item.ID,
		Quantity:     item.Quantity,
		BasePrice:    base,
		OptionsPrice: options,
		AddOnsPrice:  addOns,
		LineSubtotal: subtotal,
		UnitPrice:    unit,
		LineTotal:    unit.Times(item.Quantity),
	}, nil
}

func optionsPrice(item domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, opt := range NormalizeOptions(item) {
		total = total.Add(opt.PriceModifier)
	}
	if len(item.ProductOptions) == 0 && item.ProductOptionsPriceModifier != nil {
		total = total.Add(*item.ProductOptionsPriceModifier)
	}
	return total
}

func addOnsPrice(item domain.CartItem) (decimal.Decimal, error) {
	if item.AddOnsPrice != nil {
		return *item.AddOnsPrice, nil
	}
	total := decimal.Zero
	for _, a := range item.AddOns {
		if a.Price.IsNegative() {
			return decimal.Zero, fmt.Errorf("%s: %w", a.Name, ErrNegativeAddOn)
		}
		total = total.Add(a.Price)
	}
	return total, nil
}

// NormalizeOptions migrates legacy free-form selections into the structured
// form. Structured entries come first; legacy keys already represented by a
// structured entry (by id or name) are dropped so nothing is counted twice.
// Legacy entries take their modifier from OptionsPricing, zero when absent.
func NormalizeOptions(item domain.CartItem) []domain.SelectedOption {
	out := make([]domain.SelectedOption, 0, len(item.ProductOptions)+len(item.SelectedOptions))
	seen := make(map[string]struct{}, len(item.ProductOptions)*2)
	for _, opt := range item.ProductOptions {
		out = append(out, opt)
		seen[opt.OptionID] = struct{}{}
		if opt.OptionName != "" {
			seen[opt.OptionName] = struct{}{}
		}
	}

	for _, key := range sortedKeys(item.SelectedOptions) {
		if _, dup := seen[key]; dup {
			continue
		}
		out = append(out, domain.SelectedOption{
			OptionID:      key,
			OptionName:    key,
			Value:         item.SelectedOptions[key],
			PriceModifier: item.OptionsPricing[key],
		})
	}
	return out
}

// Reprice refreshes an item's cached price fields from its non-cached fields.
// An explicit BasePrice is kept since it pins historical pricing.
// The returned item is a copy; item is not modified.
func Reprice(item domain.CartItem) (domain.CartItem, error) {
	out := item.Clone()
	out.AddOnsPrice = nil
	out.TotalPrice = nil
	out.ProductOptionsPriceModifier = nil
	if len(out.ProductOptions) > 0 {
		mod := decimal.Zero
		for _, o := range out.ProductOptions {
			mod = mod.Add(o.PriceModifier)
		}
		out.ProductOptionsPriceModifier = domain.MoneyPtr(mod)
	} else if item.ProductOptionsPriceModifier != nil {
		out.ProductOptionsPriceModifier = domain.MoneyPtr(*item.ProductOptionsPriceModifier)
	}

	line, err := ResolveLineItem(out)
	if err != nil {
		return domain.CartItem{}, err
	}
	out.BasePrice = domain.MoneyPtr(line.BasePrice)
	out.AddOnsPrice = domain.MoneyPtr(line.AddOnsPrice)
	out.TotalPrice = domain.MoneyPtr(line.UnitPrice.Amount())
	return out, nil
}
