package pricing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func dp(v string) *decimal.Decimal {
	x := d(v)
	return &x
}

func dropdownItem() domain.CartItem {
	return domain.CartItem{
		ID:        "line-1",
		ProductID: "p-1",
		Quantity:  2,
		Product:   domain.ProductSnapshot{ID: "p-1", Price: d("90")},
		BasePrice: dp("100"),
		ProductOptions: []domain.SelectedOption{
			{OptionID: "size", OptionName: "Size", Type: domain.OptionDropdown, Value: domain.SingleValue("L"), PriceModifier: d("20")},
		},
	}
}

func TestResolveLineItem_DropdownOption(t *testing.T) {
	line, err := ResolveLineItem(dropdownItem())
	require.NoError(t, err)
	assert.True(t, d("100").Equal(line.BasePrice))
	assert.True(t, d("20").Equal(line.OptionsPrice))
	assert.True(t, d("120").Equal(line.UnitPrice.Amount()))
	assert.True(t, d("240").Equal(line.LineTotal.Amount()), "got %s", line.LineTotal.Amount())
}

func TestResolveLineItem_FallsBackToProductPrice(t *testing.T) {
	item := domain.CartItem{ID: "x", Quantity: 3, Product: domain.ProductSnapshot{Price: d("10.5")}}
	line, err := ResolveLineItem(item)
	require.NoError(t, err)
	assert.True(t, d("31.5").Equal(line.LineTotal.Amount()))
}

func TestResolveLineItem_TotalPriceCacheIsPerUnit(t *testing.T) {
	item := dropdownItem()
	item.TotalPrice = dp("130")
	line, err := ResolveLineItem(item)
	require.NoError(t, err)
	assert.True(t, d("130").Equal(line.UnitPrice.Amount()))
	assert.True(t, d("260").Equal(line.LineTotal.Amount()))

	item.TotalPrice = dp("0")
	line, err = ResolveLineItem(item)
	require.NoError(t, err)
	assert.True(t, d("240").Equal(line.LineTotal.Amount()), "zero cache is ignored")
}

func TestResolveLineItem_AddOns(t *testing.T) {
	item := dropdownItem()
	item.AddOns = []domain.AddOn{{Name: "gift wrap", Price: d("5")}, {Name: "card", Price: d("2.5")}}
	line, err := ResolveLineItem(item)
	require.NoError(t, err)
	assert.True(t, d("7.5").Equal(line.AddOnsPrice))
	assert.True(t, d("255").Equal(line.LineTotal.Amount()))

	item.AddOnsPrice = dp("1")
	line, err = ResolveLineItem(item)
	require.NoError(t, err)
	assert.True(t, d("1").Equal(line.AddOnsPrice), "cached add-ons price wins")
}

func TestResolveLineItem_Errors(t *testing.T) {
	item := dropdownItem()
	item.Quantity = 0
	_, err := ResolveLineItem(item)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	item = dropdownItem()
	item.AddOns = []domain.AddOn{{Name: "bad", Price: d("-1")}}
	_, err = ResolveLineItem(item)
	require.ErrorIs(t, err, ErrNegativeAddOn)
}

func TestResolveLineItem_NegativeModifierIsDeterministic(t *testing.T) {
	item := dropdownItem()
	item.ProductOptions[0].PriceModifier = d("-150")
	first, err := ResolveLineItem(item)
	require.NoError(t, err)
	second, err := ResolveLineItem(item)
	require.NoError(t, err)
	assert.True(t, d("-100").Equal(first.LineTotal.Amount()))
	assert.True(t, first.LineTotal.Amount().Equal(second.LineTotal.Amount()))
}

func TestResolveLineItem_ModifierCacheOnlyWithoutStructuredOptions(t *testing.T) {
	item := dropdownItem()
	item.ProductOptionsPriceModifier = dp("20")
	line, err := ResolveLineItem(item)
	require.NoError(t, err)
	assert.True(t, d("20").Equal(line.OptionsPrice), "cache must not double count")

	item.ProductOptions = nil
	line, err = ResolveLineItem(item)
	require.NoError(t, err)
	assert.True(t, d("20").Equal(line.OptionsPrice))
}

func TestNormalizeOptions_LegacyEntries(t *testing.T) {
	item := dropdownItem()
	item.SelectedOptions = map[string]domain.OptionValue{
		"size":  domain.SingleValue("L"),
		"color": domain.SingleValue("red"),
		"extra": domain.ListValue("a", "b"),
	}
	item.OptionsPricing = map[string]decimal.Decimal{"color": d("3"), "size": d("99")}

	opts := NormalizeOptions(item)
	require.Len(t, opts, 3)
	assert.Equal(t, "size", opts[0].OptionID)
	assert.Equal(t, "color", opts[1].OptionID)
	assert.True(t, d("3").Equal(opts[1].PriceModifier))
	assert.Equal(t, "extra", opts[2].OptionID)
	assert.True(t, opts[2].PriceModifier.IsZero())

	line, err := ResolveLineItem(item)
	require.NoError(t, err)
	assert.True(t, d("23").Equal(line.OptionsPrice), "duplicate legacy size is dropped")
}

func TestReprice_IsIdempotent(t *testing.T) {
	item := dropdownItem()
	item.AddOns = []domain.AddOn{{Name: "wrap", Price: d("5")}}

	once, err := Reprice(item)
	require.NoError(t, err)
	twice, err := Reprice(once)
	require.NoError(t, err)

	assert.True(t, d("125").Equal(*once.TotalPrice))
	assert.True(t, once.TotalPrice.Equal(*twice.TotalPrice))
	assert.True(t, once.AddOnsPrice.Equal(*twice.AddOnsPrice))
	assert.True(t, d("20").Equal(*twice.ProductOptionsPriceModifier))
	assert.Nil(t, item.TotalPrice, "input untouched")

	a, err := ResolveLineItem(item)
	require.NoError(t, err)
	b, err := ResolveLineItem(twice)
	require.NoError(t, err)
	assert.True(t, a.LineTotal.Amount().Equal(b.LineTotal.Amount()))
}

func TestReprice_DropsStaleTotal(t *testing.T) {
	item := dropdownItem()
	item.TotalPrice = dp("999")
	out, err := Reprice(item)
	require.NoError(t, err)
	assert.True(t, d("120").Equal(*out.TotalPrice))
}

func TestResolveCart_DiscountExceedsSubtotal(t *testing.T) {
	other := domain.CartItem{ID: "line-2", Quantity: 1, Product: domain.ProductSnapshot{Price: d("50")}}
	totals, err := ResolveCart(
		[]domain.CartItem{dropdownItem(), other},
		&domain.Coupon{Code: "BIG", DiscountAmount: d("300")},
		&domain.ShippingRegion{ID: "r1", Price: d("25"), IsActive: true},
	)
	require.NoError(t, err)
	assert.True(t, d("290").Equal(totals.Subtotal))
	assert.Equal(t, 3, totals.ItemCount)
	assert.True(t, d("15").Equal(totals.GrandTotal), "got %s", totals.GrandTotal)
	require.Len(t, totals.Lines, 2)
}

func TestResolveCart_DiscountClampsAtZero_NoShipping(t *testing.T) {
	item := domain.CartItem{ID: "a", Quantity: 1, Product: domain.ProductSnapshot{Price: d("40")}}
	totals, err := ResolveCart([]domain.CartItem{item}, &domain.Coupon{DiscountAmount: d("100")}, nil)
	require.NoError(t, err)
	assert.True(t, totals.GrandTotal.IsZero())
}

func TestResolveCart_CouponWithoutShipping(t *testing.T) {
	item := domain.CartItem{ID: "a", Quantity: 1, Product: domain.ProductSnapshot{Price: d("100")}}
	totals, err := ResolveCart([]domain.CartItem{item}, &domain.Coupon{DiscountAmount: d("50")}, &domain.ShippingRegion{Price: d("0")})
	require.NoError(t, err)
	assert.True(t, d("50").Equal(totals.GrandTotal))
}

func TestResolveCart_Empty(t *testing.T) {
	totals, err := ResolveCart(nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, totals.GrandTotal.IsZero())
	assert.Empty(t, totals.Lines)
}

func TestResolveCart_PropagatesLineErrors(t *testing.T) {
	_, err := ResolveCart([]domain.CartItem{{ID: "bad", Quantity: -1}}, nil, nil)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestResolveCart_RepeatableAndLeavesInputsAlone(t *testing.T) {
	items := []domain.CartItem{dropdownItem(), {ID: "b", Quantity: 1, Product: domain.ProductSnapshot{Price: d("50")}}}
	coupon := &domain.Coupon{Code: "TEN", DiscountAmount: d("10"), ValidatedSubtotal: d("290")}
	region := &domain.ShippingRegion{ID: "r1", Price: d("25"), IsActive: true}

	itemsBefore := domain.CloneItems(items)
	couponBefore, regionBefore := *coupon, *region

	first, err := ResolveCart(items, coupon, region)
	require.NoError(t, err)
	second, err := ResolveCart(items, coupon, region)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, itemsBefore, items)
	assert.Equal(t, couponBefore, *coupon)
	assert.Equal(t, regionBefore, *region)
}

func TestResolveCart_RemovingCouponResetsDiscount(t *testing.T) {
	items := []domain.CartItem{dropdownItem()}
	region := &domain.ShippingRegion{ID: "r1", Price: d("25"), IsActive: true}

	with, err := ResolveCart(items, &domain.Coupon{Code: "BIG", DiscountAmount: d("300")}, region)
	require.NoError(t, err)
	assert.True(t, d("300").Equal(with.Discount))
	assert.True(t, d("0").Equal(with.GrandTotal))

	without, err := ResolveCart(items, nil, region)
	require.NoError(t, err)
	assert.True(t, without.Discount.IsZero())
	assert.True(t, d("265").Equal(without.GrandTotal), "got %s", without.GrandTotal)
}

func TestCartTotals_DecodesFromJSON(t *testing.T) {
	totals, err := ResolveCart([]domain.CartItem{dropdownItem()}, nil, nil)
	require.NoError(t, err)
	data, err := json.Marshal(totals)
	require.NoError(t, err)

	var decoded CartTotals
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Lines, 1)
	assert.True(t, d("120").Equal(decoded.Lines[0].UnitPrice.Amount()))
	assert.True(t, d("240").Equal(decoded.Lines[0].LineTotal.Amount()))
	assert.True(t, d("240").Equal(decoded.Subtotal))
}
