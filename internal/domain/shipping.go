package domain

type ShippingRegion struct {
	ID       string        `json:"id"`
	Name     LocalizedText `json:"name"`
	Price    Money         `json:"price"`
	IsActive bool          `json:"isActive"`
}

// DefaultRegion picks the first active region, as the checkout does when the
// buyer has not chosen one.
func DefaultRegion(regions []ShippingRegion) (ShippingRegion, bool) {
	for _, r := range regions {
		if r.IsActive {
			return r, true
		}
	}
	return ShippingRegion{}, false
}

// FindRegion returns the active region with the given id.
func FindRegion(regions []ShippingRegion, id string) (ShippingRegion, bool) {
	for _, r := range regions {
		if r.ID == id && r.IsActive {
			return r, true
		}
	}
	return ShippingRegion{}, false
}
