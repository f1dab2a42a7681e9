package checkout

import (
	"context"
	"sync"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/cart"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/remote"
)

type mockCarts struct {
	m       sync.Mutex
	snap    cart.Snapshot
	loadErr    error
	cleared    int
	clearedIDs []string
}

func (c *mockCarts) Load(context.Context, string) (cart.Snapshot, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.loadErr != nil {
		return cart.Snapshot{}, c.loadErr
	}
	snap := c.snap
	snap.Items = domain.CloneItems(c.snap.Items)
	return snap, nil
}

func (c *mockCarts) ClearForOrder(_ context.Context, _ string, itemIDs []string) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.cleared++
	c.clearedIDs = append(c.clearedIDs, itemIDs...)
	c.snap.Items = nil
	return nil
}

type mockCoupons struct {
	applied    *domain.Coupon
	refreshErr error
	cleared    int
}

func (c *mockCoupons) Refresh(context.Context, string, domain.Money) (*domain.Coupon, error) {
	if c.refreshErr != nil {
		return nil, c.refreshErr
	}
	return c.applied, nil
}

func (c *mockCoupons) Clear(context.Context, string) error {
	c.cleared++
	c.applied = nil
	return nil
}

type mockBackend struct {
	m          sync.Mutex
	products   map[string]domain.Product
	productErr error
	lookups    int
	regions    []domain.ShippingRegion
	regionsErr error
	orderID    string
	orderErr   error
	placed     []domain.Order
	gate       chan struct{}
}

func (b *mockBackend) Product(_ context.Context, id string) (*domain.Product, error) {
	b.m.Lock()
	defer b.m.Unlock()
	b.lookups++
	if b.productErr != nil {
		return nil, b.productErr
	}
	p, ok := b.products[id]
	if !ok {
		return nil, &remote.APIError{Method: "GET", Path: "/products/" + id, Status: 404}
	}
	return &p, nil
}

func (b *mockBackend) ActiveShipping(context.Context) ([]domain.ShippingRegion, error) {
	b.m.Lock()
	defer b.m.Unlock()
	if b.regionsErr != nil {
		return nil, b.regionsErr
	}
	return b.regions, nil
}

func (b *mockBackend) PlaceOrder(_ context.Context, order domain.Order) (string, error) {
	if b.gate != nil {
		<-b.gate
	}
	b.m.Lock()
	defer b.m.Unlock()
	b.placed = append(b.placed, order)
	if b.orderErr != nil {
		return "", b.orderErr
	}
	return b.orderID, nil
}
