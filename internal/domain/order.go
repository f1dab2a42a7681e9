package domain

import "time"

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentCard           PaymentMethod = "card"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentWallet         PaymentMethod = "wallet"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentCard, PaymentBankTransfer, PaymentWallet:
		return true
	}
	return false
}

// IsElectronic reports whether the method needs a confirmed charge before the order is sent.
func (m PaymentMethod) IsElectronic() bool {
	return m.IsValid() && m != PaymentCashOnDelivery
}

// OrderStatus is driven by the backend and only ever read here.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type CustomerInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// OrderLine is a cart line with its price resolved and frozen at submission.
type OrderLine struct {
	ItemID          string                 `json:"id"`
	ProductID       string                 `json:"productId"`
	Product         ProductSnapshot        `json:"product"`
	Quantity        int                    `json:"quantity"`
	ProductOptions  []SelectedOption       `json:"productOptions,omitempty"`
	SelectedOptions map[string]OptionValue `json:"selectedOptions,omitempty"`
	AddOns          []AddOn                `json:"addOns,omitempty"`
	Attachments     *Attachments           `json:"attachments,omitempty"`
	BasePrice       Money                  `json:"basePrice"`
	OptionsPrice    Money                  `json:"optionsPrice"`
	AddOnsPrice     Money                  `json:"addOnsPrice"`
	UnitPrice       Money                  `json:"unitPrice"`
	LineTotal       Money                  `json:"lineTotal"`
}

// Order is written once at checkout. The JSON form is both the POST /checkout
// payload and the "thankYouOrder" storage entry.
type Order struct {
	ID             string          `json:"orderId,omitempty"`
	Items          []OrderLine     `json:"items"`
	CustomerInfo   CustomerInfo    `json:"customerInfo"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	PaymentRef     string          `json:"paymentReference,omitempty"`
	Subtotal       Money           `json:"subtotal"`
	ShippingPrice  Money           `json:"shippingPrice"`
	ShippingRegion *ShippingRegion `json:"shippingRegion"`
	CouponDiscount Money           `json:"couponDiscount"`
	AppliedCoupon  *Coupon         `json:"appliedCoupon"`
	Total          Money           `json:"total"`
	UserID         *string         `json:"userId"`
	IsGuestOrder   bool            `json:"isGuestOrder"`
	Status         OrderStatus     `json:"status,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}
