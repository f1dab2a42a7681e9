package domain

// Category is a read-only catalog node with its subcategories.
type Category struct {
	ID            string        `json:"id"`
	Name          LocalizedText `json:"name"`
	Slug          string        `json:"slug,omitempty"`
	Image         string        `json:"image,omitempty"`
	Subcategories []Category    `json:"subcategories,omitempty"`
}

// Product is owned by the backend; the gateway only reads it.
type Product struct {
	ID                 string                    `json:"id"`
	Name               LocalizedText             `json:"name"`
	Description        LocalizedText             `json:"description,omitempty"`
	Price              Money                     `json:"price"`
	OriginalPrice      *Money                    `json:"originalPrice,omitempty"`
	MainImage          string                    `json:"mainImage"`
	IsAvailable        *bool                     `json:"isAvailable,omitempty"`
	CategoryID         string                    `json:"categoryId,omitempty"`
	SubcategoryID      string                    `json:"subcategoryId,omitempty"`
	AdditionalServices []AddOn                   `json:"additionalServices,omitempty"`
	ProductOptions     []ProductOptionDefinition `json:"productOptions,omitempty"`
}

// Snapshot denormalizes the fields a cart line needs to render after the
// live product changes or disappears.
func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		MainImage: p.MainImage,
	}
}

// Available treats a product without an availability flag as purchasable.
func (p Product) Available() bool {
	return p.IsAvailable == nil || *p.IsAvailable
}
