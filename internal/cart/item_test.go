package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/pricing"
)

func collar() domain.Product {
	return domain.Product{
		ID:    "collar",
		Name:  domain.LocalizedText{"en": "Collar"},
		Price: decimal.NewFromInt(100),
		ProductOptions: []domain.ProductOptionDefinition{
			{ID: "size", Type: domain.OptionDropdown, Required: true, Name: domain.LocalizedText{"en": "Size"},
				Values: []domain.OptionValueDefinition{{Value: "M"}, {Value: "L", PriceModifier: decimal.NewFromInt(20)}}},
		},
		AdditionalServices: []domain.AddOn{{Name: "engraving", Price: decimal.NewFromInt(15)}},
	}
}

func TestNewItem_PricesSelection(t *testing.T) {
	item, err := NewItem(collar(), Selection{
		Quantity:    2,
		Options:     map[string]domain.OptionValue{"size": domain.SingleValue("L")},
		AddOns:      []string{"engraving"},
		Attachments: &domain.Attachments{Text: "Rex"},
	})
	require.NoError(t, err)
	assert.Equal(t, "collar", item.ProductID)
	require.NotNil(t, item.TotalPrice)
	assert.True(t, decimal.NewFromInt(135).Equal(*item.TotalPrice))
	assert.Equal(t, "Rex", item.Attachments.Text)

	resolved, err := pricing.ResolveLineItem(item)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(270).Equal(resolved.LineTotal.Amount()))
}

func TestNewItem_Errors(t *testing.T) {
	_, err := NewItem(collar(), Selection{Quantity: 1})
	require.ErrorIs(t, err, pricing.ErrRequiredOption)

	_, err = NewItem(collar(), Selection{Quantity: 0, Options: map[string]domain.OptionValue{"size": domain.SingleValue("M")}})
	require.ErrorIs(t, err, pricing.ErrInvalidQuantity)

	unavailable := collar()
	no := false
	unavailable.IsAvailable = &no
	_, err = NewItem(unavailable, Selection{Quantity: 1})
	require.ErrorIs(t, err, ErrProductMissing)
}
