package domain

import (
	"maps"
	"slices"
	"sort"
	"strings"
	"time"
)

// AddOn is a flat-priced service bolted onto a line, independent of options.
type AddOn struct {
	Name        string `json:"name"`
	NameAr      string `json:"nameAr,omitempty"`
	NameEn      string `json:"nameEn,omitempty"`
	Price       Money  `json:"price"`
	Description string `json:"description,omitempty"`
}

// Attachments is buyer-provided content such as engraving text or reference images.
type Attachments struct {
	Text   string   `json:"text,omitempty"`
	Images []string `json:"images,omitempty"`
}

func (a *Attachments) IsEmpty() bool {
	return a == nil || (strings.TrimSpace(a.Text) == "" && len(a.Images) == 0)
}

// ProductSnapshot is the denormalized product copy kept on a cart line.
type ProductSnapshot struct {
	ID        string        `json:"id,omitempty"`
	Name      LocalizedText `json:"name"`
	Price     Money         `json:"price"`
	MainImage string        `json:"mainImage,omitempty"`
}

// CartItem is one line of a cart as persisted in the "cart" storage entry.
//
// BasePrice, AddOnsPrice, TotalPrice and ProductOptionsPriceModifier are caches
// of the pricing resolver's output. TotalPrice is always a per-unit price.
// SelectedOptions and OptionsPricing are the legacy free-form option fields,
// still read for older entries.
type CartItem struct {
	ID                          string                 `json:"id"`
	ProductID                   string                 `json:"productId"`
	Quantity                    int                    `json:"quantity"`
	Product                     ProductSnapshot        `json:"product"`
	SelectedOptions             map[string]OptionValue `json:"selectedOptions,omitempty"`
	OptionsPricing              map[string]Money       `json:"optionsPricing,omitempty"`
	ProductOptions              []SelectedOption       `json:"productOptions,omitempty"`
	ProductOptionsPriceModifier *Money                 `json:"productOptionsPriceModifier,omitempty"`
	AddOns                      []AddOn                `json:"addOns,omitempty"`
	Attachments                 *Attachments           `json:"attachments,omitempty"`
	BasePrice                   *Money                 `json:"basePrice,omitempty"`
	AddOnsPrice                 *Money                 `json:"addOnsPrice,omitempty"`
	TotalPrice                  *Money                 `json:"totalPrice,omitempty"`
	AddedAt                     *time.Time             `json:"addedAt,omitempty"`
}

// Signature identifies lines that describe the same configured product, so
// adding it again bumps the quantity instead of creating a second line.
func (i CartItem) Signature() string {
	var b strings.Builder
	b.WriteString(i.ProductID)
	b.WriteString("|o:")
	opts := make([]string, 0, len(i.ProductOptions))
	for _, o := range i.ProductOptions {
		opts = append(opts, o.OptionID+"="+o.Value.String())
	}
	sort.Strings(opts)
	b.WriteString(strings.Join(opts, ";"))
	b.WriteString("|l:")
	legacy := make([]string, 0, len(i.SelectedOptions))
	for k, v := range i.SelectedOptions {
		legacy = append(legacy, k+"="+v.String())
	}
	sort.Strings(legacy)
	b.WriteString(strings.Join(legacy, ";"))
	b.WriteString("|a:")
	addOns := make([]string, 0, len(i.AddOns))
	for _, a := range i.AddOns {
		addOns = append(addOns, a.Name)
	}
	sort.Strings(addOns)
	b.WriteString(strings.Join(addOns, ";"))
	if !i.Attachments.IsEmpty() {
		b.WriteString("|t:")
		b.WriteString(i.Attachments.Text)
		b.WriteString(strings.Join(i.Attachments.Images, ";"))
	}
	return b.String()
}

// Equal reports whether two lines carry the same content. Prices compare by
// value, so 100 and 100.00 match.
func (i CartItem) Equal(o CartItem) bool {
	if i.ID != o.ID || i.ProductID != o.ProductID || i.Quantity != o.Quantity {
		return false
	}
	if i.Product.ID != o.Product.ID || i.Product.MainImage != o.Product.MainImage ||
		!i.Product.Price.Equal(o.Product.Price) || !maps.Equal(i.Product.Name, o.Product.Name) {
		return false
	}
	if !maps.EqualFunc(i.SelectedOptions, o.SelectedOptions, OptionValue.Equal) ||
		!maps.EqualFunc(i.OptionsPricing, o.OptionsPricing, Money.Equal) {
		return false
	}
	if !slices.EqualFunc(i.ProductOptions, o.ProductOptions, func(a, b SelectedOption) bool {
		return a.OptionID == b.OptionID && a.OptionName == b.OptionName && a.Type == b.Type &&
			a.Value.Equal(b.Value) && a.PriceModifier.Equal(b.PriceModifier)
	}) {
		return false
	}
	if !slices.EqualFunc(i.AddOns, o.AddOns, func(a, b AddOn) bool {
		return a.Name == b.Name && a.NameAr == b.NameAr && a.NameEn == b.NameEn &&
			a.Description == b.Description && a.Price.Equal(b.Price)
	}) {
		return false
	}
	if i.Attachments.IsEmpty() != o.Attachments.IsEmpty() {
		return false
	}
	if !i.Attachments.IsEmpty() &&
		(i.Attachments.Text != o.Attachments.Text || !slices.Equal(i.Attachments.Images, o.Attachments.Images)) {
		return false
	}
	if i.AddedAt == nil || o.AddedAt == nil {
		if i.AddedAt != o.AddedAt {
			return false
		}
	} else if !i.AddedAt.Equal(*o.AddedAt) {
		return false
	}
	return equalMoneyPtr(i.ProductOptionsPriceModifier, o.ProductOptionsPriceModifier) &&
		equalMoneyPtr(i.BasePrice, o.BasePrice) &&
		equalMoneyPtr(i.AddOnsPrice, o.AddOnsPrice) &&
		equalMoneyPtr(i.TotalPrice, o.TotalPrice)
}

// EqualItems compares two carts line by line, in order.
func EqualItems(a, b []CartItem) bool {
	return slices.EqualFunc(a, b, CartItem.Equal)
}

func equalMoneyPtr(a, b *Money) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Owner scopes a cart: an authenticated user id, or a guest when UserID is empty.
type Owner struct {
	UserID string `json:"userId,omitempty"`
}

func (o Owner) IsGuest() bool {
	return o.UserID == ""
}

type Cart struct {
	Owner Owner      `json:"owner"`
	Items []CartItem `json:"items"`
}

// ItemCount is the total quantity across all lines.
func (c Cart) ItemCount() int {
	return CountItems(c.Items)
}

func CountItems(items []CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// CloneItems deep-copies items so callers can mutate the copy freely.
func CloneItems(items []CartItem) []CartItem {
	if items == nil {
		return nil
	}
	out := make([]CartItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

func (i CartItem) Clone() CartItem {
	c := i
	if i.SelectedOptions != nil {
		c.SelectedOptions = make(map[string]OptionValue, len(i.SelectedOptions))
		for k, v := range i.SelectedOptions {
			c.SelectedOptions[k] = v
		}
	}
	if i.OptionsPricing != nil {
		c.OptionsPricing = make(map[string]Money, len(i.OptionsPricing))
		for k, v := range i.OptionsPricing {
			c.OptionsPricing[k] = v
		}
	}
	if i.ProductOptions != nil {
		c.ProductOptions = append([]SelectedOption(nil), i.ProductOptions...)
	}
	if i.AddOns != nil {
		c.AddOns = append([]AddOn(nil), i.AddOns...)
	}
	if i.Attachments != nil {
		att := *i.Attachments
		att.Images = append([]string(nil), i.Attachments.Images...)
		c.Attachments = &att
	}
	return c
}
