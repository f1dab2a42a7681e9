package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/cart"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/coupon"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/remote"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/storage"
)

var (
	editing    = domain.CheckoutStatusEditing
	validating = domain.CheckoutStatusValidating
	submitting = domain.CheckoutStatusSubmitting
	success    = domain.CheckoutStatusSuccess
	failure    = domain.CheckoutStatusFailure
)

type fixture struct {
	sut     *Service
	store   *storage.MemoryStore
	carts   *mockCarts
	coupons *mockCoupons
	backend *mockBackend
}

func newFixture() *fixture {
	f := &fixture{
		store: storage.NewMemoryStore(),
		carts: &mockCarts{snap: cart.Snapshot{Items: []domain.CartItem{
			{ID: "a", ProductID: "p1", Quantity: 2, BasePrice: domain.MoneyPtr(decimal.NewFromInt(100)),
				ProductOptions: []domain.SelectedOption{{OptionID: "size", Value: domain.SingleValue("L"), PriceModifier: decimal.NewFromInt(20)}}},
			{ID: "b", ProductID: "p2", Quantity: 1, Product: domain.ProductSnapshot{Price: decimal.NewFromInt(50)}},
		}}},
		coupons: &mockCoupons{},
		backend: &mockBackend{
			orderID: "ord-1",
			products: map[string]domain.Product{
				"p1": {ID: "p1", ProductOptions: []domain.ProductOptionDefinition{
					{ID: "size", Type: domain.OptionDropdown, Name: domain.LocalizedText{"en": "Size"}, Required: true},
				}},
			},
			regions: []domain.ShippingRegion{
				{ID: "closed", Price: decimal.NewFromInt(5), IsActive: false},
				{ID: "r1", Price: decimal.NewFromInt(25), IsActive: true},
				{ID: "r2", Price: decimal.NewFromInt(40), IsActive: true},
			},
		},
	}
	f.sut = NewService(f.store, f.carts, f.coupons, f.backend, map[domain.PaymentMethod]PaymentProcessor{
		domain.PaymentCashOnDelivery: CashOnDelivery{},
		domain.PaymentCard:           SimulatedCharge{},
	})
	f.sut.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return f
}

func validRequest() Request {
	return Request{
		Customer:      domain.CustomerInfo{Name: " Sam ", Phone: "0500000000", Address: "1 Main St"},
		PaymentMethod: domain.PaymentCashOnDelivery,
	}
}

func TestSubmit_CashOnDeliverySuccess(t *testing.T) {
	f := newFixture()
	f.coupons.applied = &domain.Coupon{Code: "BIG", DiscountAmount: decimal.NewFromInt(300)}
	ctx := context.Background()

	res, err := f.sut.Submit(ctx, "s", validRequest())
	require.NoError(t, err)
	assert.Equal(t, success, res.Status)
	assert.Equal(t, []domain.CheckoutStatus{editing, validating, submitting, success}, res.Trail)
	require.NotNil(t, res.Order)
	assert.Equal(t, "ord-1", res.Order.ID)

	require.Len(t, f.backend.placed, 1)
	placed := f.backend.placed[0]
	assert.True(t, decimal.NewFromInt(290).Equal(placed.Subtotal))
	assert.True(t, decimal.NewFromInt(25).Equal(placed.ShippingPrice), "first active region by default")
	assert.True(t, decimal.NewFromInt(300).Equal(placed.CouponDiscount))
	assert.True(t, decimal.NewFromInt(15).Equal(placed.Total))
	assert.True(t, placed.IsGuestOrder)
	assert.Nil(t, placed.UserID)
	assert.Equal(t, "Sam", placed.CustomerInfo.Name)
	require.Len(t, placed.Items, 2)
	assert.True(t, decimal.NewFromInt(120).Equal(placed.Items[0].UnitPrice))
	assert.True(t, decimal.NewFromInt(240).Equal(placed.Items[0].LineTotal))

	local := storage.NewLocal(f.store, "s")
	id, err := local.LastOrderID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ord-1", id)
	last, err := f.sut.LastOrder(ctx, "s")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "ord-1", last.ID)

	assert.Equal(t, 1, f.carts.cleared)
	assert.Equal(t, []string{"a", "b"}, f.carts.clearedIDs, "only ordered lines are dropped")
	assert.Equal(t, 1, f.coupons.cleared)
}

func TestSubmit_AuthenticatedOrder(t *testing.T) {
	f := newFixture()
	f.carts.snap.Owner = domain.Owner{UserID: "u1"}
	req := validRequest()
	req.ShippingRegionID = "r2"

	res, err := f.sut.Submit(context.Background(), "s", req)
	require.NoError(t, err)
	assert.Equal(t, success, res.Status)
	placed := f.backend.placed[0]
	require.NotNil(t, placed.UserID)
	assert.Equal(t, "u1", *placed.UserID)
	assert.False(t, placed.IsGuestOrder)
	assert.Equal(t, "r2", placed.ShippingRegion.ID)
}

func TestSubmit_ValidationFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*fixture, *Request)
		field  string
	}{
		{"missing name", func(_ *fixture, r *Request) { r.Customer.Name = "  " }, "customerInfo.name"},
		{"missing phone", func(_ *fixture, r *Request) { r.Customer.Phone = "" }, "customerInfo.phone"},
		{"missing address", func(_ *fixture, r *Request) { r.Customer.Address = "" }, "customerInfo.address"},
		{"missing payment", func(_ *fixture, r *Request) { r.PaymentMethod = "" }, "paymentMethod"},
		{"unknown payment", func(_ *fixture, r *Request) { r.PaymentMethod = "barter" }, "paymentMethod"},
		{"unconfigured payment", func(_ *fixture, r *Request) { r.PaymentMethod = domain.PaymentWallet }, "paymentMethod"},
		{"inactive region", func(_ *fixture, r *Request) { r.ShippingRegionID = "closed" }, "shippingRegion"},
		{"unknown region", func(_ *fixture, r *Request) { r.ShippingRegionID = "mars" }, "shippingRegion"},
		{"regions never loaded", func(f *fixture, _ *Request) { f.backend.regionsErr = domain.ErrUnavailable }, "shippingRegion"},
		{"empty cart", func(f *fixture, _ *Request) { f.carts.snap.Items = nil }, "items"},
		{"bad quantity", func(f *fixture, _ *Request) { f.carts.snap.Items[0].Quantity = 0 }, "items"},
		{"coupon invalidated", func(f *fixture, _ *Request) {
			f.coupons.refreshErr = fmt.Errorf("%w: gone", coupon.ErrCouponInvalidated)
		}, "coupon"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			req := validRequest()
			tc.mutate(f, &req)

			res, err := f.sut.Submit(context.Background(), "s", req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.Equal(t, editing, res.Status)
			assert.Equal(t, []domain.CheckoutStatus{editing, validating, editing}, res.Trail)
			assert.Empty(t, f.backend.placed)
		})
	}
}

func TestSubmit_RejectsLineMissingRequiredOption(t *testing.T) {
	f := newFixture()
	f.carts.snap.Items[0].ProductOptions = nil

	res, err := f.sut.Submit(context.Background(), "s", validRequest())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items", verr.Field)
	assert.Contains(t, verr.Reason, "Size")
	assert.Equal(t, []domain.CheckoutStatus{editing, validating, editing}, res.Trail)
	assert.Empty(t, f.backend.placed)
}

func TestSubmit_LegacyOptionSatisfiesRequired(t *testing.T) {
	f := newFixture()
	f.carts.snap.Items[0].ProductOptions = nil
	f.carts.snap.Items[0].SelectedOptions = map[string]domain.OptionValue{"Size": domain.SingleValue("L")}

	res, err := f.sut.Submit(context.Background(), "s", validRequest())
	require.NoError(t, err)
	assert.Equal(t, success, res.Status)
}

func TestSubmit_UnreachableCatalogSkipsOptionCheck(t *testing.T) {
	f := newFixture()
	f.carts.snap.Items[0].ProductOptions = nil
	f.backend.productErr = fmt.Errorf("dial: %w", domain.ErrUnavailable)

	res, err := f.sut.Submit(context.Background(), "s", validRequest())
	require.NoError(t, err)
	assert.Equal(t, success, res.Status)
	assert.Equal(t, 2, f.backend.lookups, "one lookup per product")
}

func TestSubmit_RegionsFallBackToLastKnown(t *testing.T) {
	f := newFixture()
	_, err := f.sut.Regions(context.Background())
	require.NoError(t, err)

	f.backend.regionsErr = fmt.Errorf("down: %w", domain.ErrUnavailable)
	res, err := f.sut.Submit(context.Background(), "s", validRequest())
	require.NoError(t, err)
	assert.Equal(t, success, res.Status)
}

func TestSubmit_ElectronicPaymentNeedsConfirmation(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.PaymentMethod = domain.PaymentCard

	res, err := f.sut.Submit(context.Background(), "s", req)
	require.ErrorIs(t, err, ErrPaymentCancelled)
	assert.Equal(t, editing, res.Status)
	assert.Equal(t, []domain.CheckoutStatus{editing, validating, submitting, editing}, res.Trail)
	assert.Empty(t, f.backend.placed)

	req.PaymentConfirmed = true
	res, err = f.sut.Submit(context.Background(), "s", req)
	require.NoError(t, err)
	assert.Equal(t, success, res.Status)
	assert.Contains(t, res.Order.PaymentRef, "sim_")
}

func TestSubmit_PaymentDeclinedAbortsBeforeOrder(t *testing.T) {
	f := newFixture()
	f.sut.processors[domain.PaymentCard] = SimulatedCharge{Decide: func(PaymentRequest) error { return errors.New("insufficient funds") }}
	req := validRequest()
	req.PaymentMethod = domain.PaymentCard
	req.PaymentConfirmed = true

	res, err := f.sut.Submit(context.Background(), "s", req)
	require.ErrorIs(t, err, ErrPaymentFailed)
	assert.Equal(t, editing, res.Status)
	assert.Empty(t, f.backend.placed)
	assert.Zero(t, f.carts.cleared)
}

func TestSubmit_OrderFailureKeepsCart(t *testing.T) {
	f := newFixture()
	f.backend.orderErr = &remote.APIError{Method: "POST", Path: "/checkout", Status: 502, Message: "upstream unavailable"}
	req := validRequest()
	req.PaymentMethod = domain.PaymentCard
	req.PaymentConfirmed = true

	res, err := f.sut.Submit(context.Background(), "s", req)
	var serr *SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "upstream unavailable", serr.Message)
	assert.Contains(t, err.Error(), "upstream unavailable")
	assert.Equal(t, editing, res.Status)
	assert.Equal(t, []domain.CheckoutStatus{editing, validating, submitting, failure, editing}, res.Trail)

	assert.Zero(t, f.carts.cleared)
	assert.Len(t, f.carts.snap.Items, 2)
	id, _ := storage.NewLocal(f.store, "s").LastOrderID(context.Background())
	assert.Empty(t, id)

	f.backend.orderErr = nil
	res, err = f.sut.Submit(context.Background(), "s", req)
	require.NoError(t, err, "retry succeeds with the kept cart")
	assert.Equal(t, success, res.Status)
}

func TestSubmit_RejectsConcurrentSubmission(t *testing.T) {
	f := newFixture()
	f.backend.gate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.sut.Submit(context.Background(), "s", validRequest())
		done <- err
	}()
	require.Eventually(t, func() bool {
		f.sut.mu.Lock()
		defer f.sut.mu.Unlock()
		_, busy := f.sut.inFlight["s"]
		return busy
	}, time.Second, 5*time.Millisecond)

	_, err := f.sut.Submit(context.Background(), "s", validRequest())
	require.ErrorIs(t, err, ErrSubmissionInProgress)

	close(f.backend.gate)
	require.NoError(t, <-done)
}

func TestAttempt_RejectsIllegalTransition(t *testing.T) {
	a := newAttempt()
	require.ErrorIs(t, a.to(domain.CheckoutStatusSuccess), ErrIllegalTransition)
	require.NoError(t, a.to(validating))
	require.NoError(t, a.to(submitting))
	require.NoError(t, a.to(success))
	require.ErrorIs(t, a.to(editing), ErrIllegalTransition)
}

func TestSimulatedCharge_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := SimulatedCharge{Delay: time.Minute}.Process(ctx, PaymentRequest{Confirmed: true})
	require.ErrorIs(t, err, context.Canceled)

	ref, err := CashOnDelivery{}.Process(context.Background(), PaymentRequest{})
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestDefaultProcessors_CoverEveryMethod(t *testing.T) {
	procs := DefaultProcessors(0)
	for _, m := range []domain.PaymentMethod{domain.PaymentCashOnDelivery, domain.PaymentCard, domain.PaymentBankTransfer, domain.PaymentWallet} {
		assert.Contains(t, procs, m)
	}
	_, err := procs[domain.PaymentWallet].Process(context.Background(), PaymentRequest{})
	assert.ErrorIs(t, err, ErrPaymentCancelled)
}
