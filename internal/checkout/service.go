// Package checkout runs the submission state machine: validate the form and
// cart, settle payment, place the order, then clear the cart.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/cart"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/coupon"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/pricing"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/remote"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/storage"
)

type Carts interface {
	Load(ctx context.Context, session string) (cart.Snapshot, error)
	ClearForOrder(ctx context.Context, session string, itemIDs []string) error
}

type Coupons interface {
	Refresh(ctx context.Context, session string, subtotal domain.Money) (*domain.Coupon, error)
	Clear(ctx context.Context, session string) error
}

type Backend interface {
	Product(ctx context.Context, id string) (*domain.Product, error)
	ActiveShipping(ctx context.Context) ([]domain.ShippingRegion, error)
	PlaceOrder(ctx context.Context, order domain.Order) (string, error)
}

type Request struct {
	Customer         domain.CustomerInfo  `json:"customerInfo"`
	ShippingRegionID string               `json:"shippingRegionId,omitempty"`
	PaymentMethod    domain.PaymentMethod `json:"paymentMethod"`
	// PaymentConfirmed is the buyer's answer to the charge confirmation
	// prompt of an electronic payment method.
	PaymentConfirmed bool `json:"paymentConfirmed"`
}

// Result is where an attempt ended. Trail lists every status it passed through.
type Result struct {
	Status domain.CheckoutStatus   `json:"status"`
	Trail  []domain.CheckoutStatus `json:"trail"`
	Order  *domain.Order           `json:"order,omitempty"`
}

type Service struct {
	store      storage.Store
	carts      Carts
	coupons    Coupons
	backend    Backend
	processors map[domain.PaymentMethod]PaymentProcessor
	now        func() time.Time

	regionsMu sync.RWMutex
	regions   []domain.ShippingRegion

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewService(store storage.Store, carts Carts, coupons Coupons, backend Backend, processors map[domain.PaymentMethod]PaymentProcessor) *Service {
	if processors == nil {
		processors = DefaultProcessors(DefaultChargeDelay)
	}
	return &Service{
		store:      store,
		carts:      carts,
		coupons:    coupons,
		backend:    backend,
		processors: processors,
		now:        func() time.Time { return time.Now().UTC() },
		inFlight:   make(map[string]struct{}),
	}
}

// Regions returns the active shipping regions. When the backend cannot be
// reached the last successfully loaded list is served instead; an error is
// returned only if no list was ever loaded.
func (s *Service) Regions(ctx context.Context) ([]domain.ShippingRegion, error) {
	regions, err := s.backend.ActiveShipping(ctx)
	if err == nil {
		s.regionsMu.Lock()
		s.regions = append([]domain.ShippingRegion(nil), regions...)
		s.regionsMu.Unlock()
		return regions, nil
	}

	s.regionsMu.RLock()
	cached := append([]domain.ShippingRegion(nil), s.regions...)
	s.regionsMu.RUnlock()
	if len(cached) > 0 {
		log.Warn().Err(err).Msg("shipping regions unavailable, serving last known list")
		return cached, nil
	}
	return nil, fmt.Errorf("load shipping regions: %w", err)
}

type attempt struct {
	status domain.CheckoutStatus
	trail  []domain.CheckoutStatus
}

func newAttempt() *attempt {
	return &attempt{status: domain.CheckoutStatusEditing, trail: []domain.CheckoutStatus{domain.CheckoutStatusEditing}}
}

func (a *attempt) to(next domain.CheckoutStatus) error {
	if !domain.CanTransitionTo(a.status, next) {
		return fmt.Errorf("%s -> %s: %w", a.status, next, ErrIllegalTransition)
	}
	a.status = next
	a.trail = append(a.trail, next)
	return nil
}

func (a *attempt) result(order *domain.Order) *Result {
	return &Result{Status: a.status, Trail: a.trail, Order: order}
}

// Submit runs one checkout attempt for session. The returned Result is never
// nil; the error says why the attempt went back to editing:
// *ValidationError, ErrPaymentCancelled, ErrPaymentFailed or *SubmissionError.
func (s *Service) Submit(ctx context.Context, session string, req Request) (*Result, error) {
	a := newAttempt()
	if !s.begin(session) {
		return a.result(nil), ErrSubmissionInProgress
	}
	defer s.end(session)

	if err := a.to(domain.CheckoutStatusValidating); err != nil {
		return a.result(nil), err
	}

	order, local, err := s.validate(ctx, session, req)
	if err != nil {
		if terr := a.to(domain.CheckoutStatusEditing); terr != nil {
			return a.result(nil), terr
		}
		return a.result(nil), err
	}

	if err := a.to(domain.CheckoutStatusSubmitting); err != nil {
		return a.result(nil), err
	}

	ref, err := s.pay(ctx, session, req, order.Total)
	if err != nil {
		if terr := a.to(domain.CheckoutStatusEditing); terr != nil {
			return a.result(nil), terr
		}
		return a.result(nil), err
	}
	order.PaymentRef = ref

	user, _ := local.User(ctx)
	backendCtx := ctx
	if user != nil {
		backendCtx = remote.WithToken(ctx, user.Token)
	}
	id, err := s.backend.PlaceOrder(backendCtx, *order)
	if err != nil {
		log.Error().Err(err).Str("session", session).Msg("order submission failed, cart kept")
		if terr := a.to(domain.CheckoutStatusFailure); terr != nil {
			return a.result(nil), terr
		}
		if terr := a.to(domain.CheckoutStatusEditing); terr != nil {
			return a.result(nil), terr
		}
		return a.result(nil), &SubmissionError{Message: remote.Message(err), Err: err}
	}
	order.ID = id

	if err := a.to(domain.CheckoutStatusSuccess); err != nil {
		return a.result(nil), err
	}
	s.finish(ctx, session, local, *order)
	return a.result(order), nil
}

// validate checks the form and the cart and prices the order.
func (s *Service) validate(ctx context.Context, session string, req Request) (*domain.Order, *storage.Local, error) {
	c := req.Customer
	switch {
	case strings.TrimSpace(c.Name) == "":
		return nil, nil, &ValidationError{Field: "customerInfo.name", Reason: "name is required"}
	case strings.TrimSpace(c.Phone) == "":
		return nil, nil, &ValidationError{Field: "customerInfo.phone", Reason: "phone is required"}
	case strings.TrimSpace(c.Address) == "":
		return nil, nil, &ValidationError{Field: "customerInfo.address", Reason: "address is required"}
	case req.PaymentMethod == "":
		return nil, nil, &ValidationError{Field: "paymentMethod", Reason: "payment method is required"}
	case !req.PaymentMethod.IsValid():
		return nil, nil, &ValidationError{Field: "paymentMethod", Reason: fmt.Sprintf("unsupported payment method %q", req.PaymentMethod)}
	}
	if _, ok := s.processors[req.PaymentMethod]; !ok {
		return nil, nil, &ValidationError{Field: "paymentMethod", Reason: fmt.Sprintf("payment method %q is not available", req.PaymentMethod)}
	}

	regions, err := s.Regions(ctx)
	if err != nil {
		return nil, nil, &ValidationError{Field: "shippingRegion", Reason: "shipping regions could not be loaded"}
	}
	var region domain.ShippingRegion
	var ok bool
	if req.ShippingRegionID == "" {
		region, ok = domain.DefaultRegion(regions)
	} else {
		region, ok = domain.FindRegion(regions, req.ShippingRegionID)
	}
	if !ok {
		return nil, nil, &ValidationError{Field: "shippingRegion", Reason: "select an available shipping region"}
	}

	snap, err := s.carts.Load(ctx, session)
	if err != nil {
		return nil, nil, fmt.Errorf("load cart: %w", err)
	}
	if len(snap.Items) == 0 {
		return nil, nil, &ValidationError{Field: "items", Reason: "cart is empty"}
	}

	if err := s.checkOptions(ctx, snap.Items); err != nil {
		return nil, nil, err
	}

	subtotal, err := pricing.Subtotal(snap.Items)
	if err != nil {
		return nil, nil, &ValidationError{Field: "items", Reason: err.Error()}
	}
	applied, err := s.coupons.Refresh(ctx, session, subtotal)
	if err != nil {
		if errors.Is(err, coupon.ErrCouponInvalidated) {
			return nil, nil, &ValidationError{Field: "coupon", Reason: "the applied coupon no longer applies to this cart and was removed"}
		}
		return nil, nil, err
	}

	totals, err := pricing.ResolveCart(snap.Items, applied, &region)
	if err != nil {
		return nil, nil, &ValidationError{Field: "items", Reason: err.Error()}
	}

	order := &domain.Order{
		Items:          orderLines(snap.Items, totals.Lines),
		CustomerInfo:   trimCustomer(c),
		PaymentMethod:  req.PaymentMethod,
		Subtotal:       totals.Subtotal,
		ShippingPrice:  totals.ShippingFee,
		ShippingRegion: &region,
		CouponDiscount: totals.Discount,
		AppliedCoupon:  applied,
		Total:          totals.GrandTotal,
		IsGuestOrder:   snap.Owner.IsGuest(),
		Status:         domain.OrderStatusPending,
		CreatedAt:      s.now(),
	}
	if !snap.Owner.IsGuest() {
		uid := snap.Owner.UserID
		order.UserID = &uid
	}
	return order, storage.NewLocal(s.store, session), nil
}

// checkOptions rejects lines missing a selection for a required option of
// their product. Lines synced from the backend or stored by older clients never
// went through option selection. Products that cannot be fetched are left to
// the order endpoint.
func (s *Service) checkOptions(ctx context.Context, items []domain.CartItem) error {
	products := make(map[string]*domain.Product)
	for _, it := range items {
		p, seen := products[it.ProductID]
		if !seen {
			var err error
			p, err = s.backend.Product(ctx, it.ProductID)
			if err != nil {
				log.Warn().Err(err).Str("product", it.ProductID).Msg("product definitions unavailable, skipping option check")
				p = nil
			}
			products[it.ProductID] = p
		}
		if p == nil {
			continue
		}
		if err := pricing.CheckRequired(it, *p); err != nil {
			name := it.Product.Name.In("en")
			if name == "" {
				name = it.ProductID
			}
			return &ValidationError{Field: "items", Reason: fmt.Sprintf("%s: %s", name, err)}
		}
	}
	return nil
}

func (s *Service) pay(ctx context.Context, session string, req Request, amount domain.Money) (string, error) {
	processor := s.processors[req.PaymentMethod]
	ref, err := processor.Process(ctx, PaymentRequest{
		Session:   session,
		Method:    req.PaymentMethod,
		Amount:    amount,
		Confirmed: req.PaymentConfirmed,
	})
	switch {
	case errors.Is(err, ErrPaymentCancelled):
		log.Info().Str("session", session).Str("method", string(req.PaymentMethod)).Msg("payment not confirmed, back to editing")
		return "", ErrPaymentCancelled
	case err != nil:
		return "", fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}
	return ref, nil
}

// finish records the placed order for the confirmation page, clears the coupon
// and drops the ordered lines from the cart. The order already exists, so failures here are logged only.
func (s *Service) finish(ctx context.Context, session string, local *storage.Local, order domain.Order) {
	if err := local.SaveLastOrderID(ctx, order.ID); err != nil {
		log.Error().Err(err).Str("session", session).Str("order", order.ID).Msg("failed to save last order id")
	}
	if err := local.SaveThankYouOrder(ctx, order); err != nil {
		log.Error().Err(err).Str("session", session).Str("order", order.ID).Msg("failed to save order snapshot")
	}
	if err := s.coupons.Clear(ctx, session); err != nil {
		log.Error().Err(err).Str("session", session).Msg("failed to clear coupon after order")
	}
	ordered := make([]string, 0, len(order.Items))
	for _, l := range order.Items {
		ordered = append(ordered, l.ItemID)
	}
	if err := s.carts.ClearForOrder(ctx, session, ordered); err != nil {
		log.Error().Err(err).Str("session", session).Msg("failed to clear cart after order")
	}
	log.Info().Str("session", session).Str("order", order.ID).Str("total", order.Total.String()).Msg("order placed")
}

func (s *Service) begin(session string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[session]; busy {
		return false
	}
	s.inFlight[session] = struct{}{}
	return true
}

func (s *Service) end(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, session)
}

func orderLines(items []domain.CartItem, lines []pricing.LineBreakdown) []domain.OrderLine {
	out := make([]domain.OrderLine, 0, len(items))
	for i, it := range items {
		l := lines[i]
		out = append(out, domain.OrderLine{
			ItemID:          it.ID,
			ProductID:       it.ProductID,
			Product:         it.Product,
			Quantity:        it.Quantity,
			ProductOptions:  pricing.NormalizeOptions(it),
			SelectedOptions: it.SelectedOptions,
			AddOns:          it.AddOns,
			Attachments:     it.Attachments,
			BasePrice:       l.BasePrice,
			OptionsPrice:    l.OptionsPrice,
			AddOnsPrice:     l.AddOnsPrice,
			UnitPrice:       l.UnitPrice.Amount(),
			LineTotal:       l.LineTotal.Amount(),
		})
	}
	return out
}

func trimCustomer(c domain.CustomerInfo) domain.CustomerInfo {
	return domain.CustomerInfo{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Email:   strings.TrimSpace(c.Email),
		Address: strings.TrimSpace(c.Address),
		City:    strings.TrimSpace(c.City),
		Notes:   strings.TrimSpace(c.Notes),
	}
}

// LastOrder returns the order snapshot saved by the most recent successful
// checkout of session, or nil.
func (s *Service) LastOrder(ctx context.Context, session string) (*domain.Order, error) {
	return storage.NewLocal(s.store, session).ThankYouOrder(ctx)
}
