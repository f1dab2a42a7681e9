package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
)

type shippingRegion struct {
	domain.ShippingRegion
	IsActive *bool `json:"isActive"`
}

// ActiveShipping lists the regions the backend currently ships to. Regions
// that omit isActive are taken as active, since the endpoint only returns
// active ones.
func (c *Client) ActiveShipping(ctx context.Context) ([]domain.ShippingRegion, error) {
	var out list[shippingRegion]
	if err := c.do(ctx, http.MethodGet, "/shipping/active", nil, &out); err != nil {
		return nil, err
	}
	regions := make([]domain.ShippingRegion, 0, len(out.Items))
	for _, r := range out.Items {
		region := r.ShippingRegion
		region.IsActive = r.IsActive == nil || *r.IsActive
		regions = append(regions, region)
	}
	return regions, nil
}

type couponRequest struct {
	Code        string       `json:"code"`
	TotalAmount domain.Money `json:"totalAmount"`
}

type couponResponse struct {
	Coupon struct {
		Code          string        `json:"code"`
		DiscountType  string        `json:"discountType"`
		DiscountValue *domain.Money `json:"discountValue"`
	} `json:"coupon"`
	DiscountAmount domain.Money `json:"discountAmount"`
}

// ValidateCoupon asks the backend to resolve code against subtotal. A refusal
// comes back as an *APIError carrying the backend's message.
func (c *Client) ValidateCoupon(ctx context.Context, code string, subtotal domain.Money) (*domain.CouponValidation, error) {
	var resp couponResponse
	if err := c.do(ctx, http.MethodPost, "/coupons/validate", couponRequest{Code: code, TotalAmount: subtotal}, &resp); err != nil {
		return nil, err
	}
	v := &domain.CouponValidation{
		Code:           resp.Coupon.Code,
		DiscountType:   resp.Coupon.DiscountType,
		DiscountValue:  resp.Coupon.DiscountValue,
		DiscountAmount: resp.DiscountAmount,
	}
	if v.Code == "" {
		v.Code = code
	}
	return v, nil
}

// PlaceOrder submits the order and returns the id the backend assigned.
func (c *Client) PlaceOrder(ctx context.Context, order domain.Order) (string, error) {
	var resp struct {
		OrderID string `json:"orderId"`
		ID      string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/checkout", order, &resp); err != nil {
		return "", err
	}
	if resp.OrderID == "" {
		resp.OrderID = resp.ID
	}
	if resp.OrderID == "" {
		return "", fmt.Errorf("checkout response without order id: %w", domain.ErrUnavailable)
	}
	return resp.OrderID, nil
}

// Order reads a placed order, mainly for its status.
func (c *Client) Order(ctx context.Context, id string) (*domain.Order, error) {
	var out item[domain.Order]
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	if out.Value.ID == "" {
		out.Value.ID = id
	}
	return &out.Value, nil
}
