package domain

import "time"

// Coupon is a code the backend accepted, with the discount it resolved for
// ValidatedSubtotal. The gateway never computes discounts itself.
type Coupon struct {
	Code              string    `json:"code"`
	DiscountAmount    Money     `json:"discountAmount"`
	ValidatedSubtotal Money     `json:"validatedSubtotal"`
	AppliedAt         time.Time `json:"appliedAt"`
}

// CouponValidation is the backend's answer to a validation request.
type CouponValidation struct {
	Code           string `json:"code"`
	DiscountType   string `json:"discountType,omitempty"`
	DiscountValue  *Money `json:"discountValue,omitempty"`
	DiscountAmount Money  `json:"discountAmount"`
}
