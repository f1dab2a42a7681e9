package cart

import (
	"fmt"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/pricing"
)

// Selection is what a buyer picked on a product page.
type Selection struct {
	Quantity    int                           `json:"quantity"`
	Options     map[string]domain.OptionValue `json:"options,omitempty"`
	AddOns      []string                      `json:"addOns,omitempty"`
	Attachments *domain.Attachments           `json:"attachments,omitempty"`
}

// NewItem builds a priced cart line for product from sel. The option and
// add-on prices are frozen into the line here.
func NewItem(product domain.Product, sel Selection) (domain.CartItem, error) {
	if !product.Available() {
		return domain.CartItem{}, fmt.Errorf("%s: %w", product.ID, ErrProductMissing)
	}
	if sel.Quantity < 1 {
		return domain.CartItem{}, pricing.ErrInvalidQuantity
	}

	options, err := pricing.SelectOptions(product, sel.Options)
	if err != nil {
		return domain.CartItem{}, err
	}
	addOns, err := pricing.SelectAddOns(product, sel.AddOns)
	if err != nil {
		return domain.CartItem{}, err
	}

	item := domain.CartItem{
		ProductID:      product.ID,
		Quantity:       sel.Quantity,
		Product:        product.Snapshot(),
		ProductOptions: options,
		AddOns:         addOns,
		BasePrice:      domain.MoneyPtr(product.Price),
	}
	if !sel.Attachments.IsEmpty() {
		a := *sel.Attachments
		a.Images = append([]string(nil), a.Images...)
		item.Attachments = &a
	}
	return pricing.Reprice(item)
}
