package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/cart"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/coupon"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/pricing"
)

type AddItemRequestDTO struct {
	ProductID string `json:"productId"`
	cart.Selection
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

type ApplyCouponRequestDTO struct {
	Code string `json:"code"`
}

// TotalsResponse is the priced cart as every surface should show it.
type TotalsResponse struct {
	pricing.CartTotals
	Coupon            *domain.Coupon         `json:"coupon"`
	ShippingRegion    *domain.ShippingRegion `json:"shippingRegion"`
	CouponInvalidated bool                   `json:"couponInvalidated,omitempty"`
}

func (s *Server) GetCart(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Carts.Load(r.Context(), SessionID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) ClearCart(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Carts.Clear(r.Context(), SessionID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// AddItem looks the product up, prices the buyer's selection and adds the
// line, merging it into an identical one already in the cart.
func (s *Server) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := s.Backend.Product(r.Context(), req.ProductID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	item, err := cart.NewItem(*product, req.Selection)
	if err != nil {
		handleError(w, r, err)
		return
	}
	snap, err := s.Carts.Add(r.Context(), SessionID(r.Context()), item)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, snap)
}

// UpdateQuantity sets a line's quantity; zero removes the line.
func (s *Server) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity is required")
		return
	}
	snap, err := s.Carts.UpdateQuantity(r.Context(), SessionID(r.Context()), chi.URLParam(r, "item_id"), *req.Quantity)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) RemoveItem(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Carts.Remove(r.Context(), SessionID(r.Context()), chi.URLParam(r, "item_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Totals prices the cart with the applied coupon and a shipping region: the
// one named by ?region=, else the first active one. A coupon the backend no
// longer accepts is dropped and flagged.
func (s *Server) Totals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionID(ctx)

	snap, err := s.Carts.Load(ctx, session)
	if err != nil {
		handleError(w, r, err)
		return
	}
	subtotal, err := pricing.Subtotal(snap.Items)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := TotalsResponse{}
	applied, err := s.Coupons.Refresh(ctx, session, subtotal)
	switch {
	case errors.Is(err, coupon.ErrCouponInvalidated):
		resp.CouponInvalidated = true
	case err != nil:
		handleError(w, r, err)
		return
	}
	resp.Coupon = applied
	resp.ShippingRegion = s.pickRegion(ctx, r)

	resp.CartTotals, err = pricing.ResolveCart(snap.Items, resp.Coupon, resp.ShippingRegion)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// pickRegion returns nil when no region is known; totals then carry no
// shipping fee rather than failing.
func (s *Server) pickRegion(ctx context.Context, r *http.Request) *domain.ShippingRegion {
	regions, err := s.Checkouts.Regions(ctx)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("no shipping regions for totals")
		return nil
	}
	var (
		region domain.ShippingRegion
		ok     bool
	)
	if id := r.URL.Query().Get("region"); id != "" {
		region, ok = domain.FindRegion(regions, id)
	} else {
		region, ok = domain.DefaultRegion(regions)
	}
	if !ok {
		return nil
	}
	return &region
}

func (s *Server) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req ApplyCouponRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	ctx := r.Context()
	session := SessionID(ctx)

	snap, err := s.Carts.Load(ctx, session)
	if err != nil {
		handleError(w, r, err)
		return
	}
	subtotal, err := pricing.Subtotal(snap.Items)
	if err != nil {
		handleError(w, r, err)
		return
	}
	c, err := s.Coupons.Apply(ctx, session, req.Code, subtotal)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	if err := s.Coupons.Remove(r.Context(), SessionID(r.Context())); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
