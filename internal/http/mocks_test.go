package http

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/remote"
)

// fakeBackend stands in for the whole storefront REST API.
type fakeBackend struct {
	mu       sync.Mutex
	products map[string]domain.Product
	regions  []domain.ShippingRegion
	coupons  map[string]decimal.Decimal
	users    map[string]domain.User
	carts    map[string][]domain.CartItem
	orders   map[string]domain.Order
	orderErr error
	tokens   []string
}

func newFakeBackend() *fakeBackend {
	unavailable := false
	return &fakeBackend{
		products: map[string]domain.Product{
			"collar": {
				ID: "collar", Name: domain.LocalizedText{"en": "Collar"}, Price: decimal.NewFromInt(100),
				ProductOptions: []domain.ProductOptionDefinition{
					{ID: "size", Type: domain.OptionDropdown, Required: true, Name: domain.LocalizedText{"en": "Size"},
						Values: []domain.OptionValueDefinition{{Value: "M"}, {Value: "L", PriceModifier: decimal.NewFromInt(20)}}},
				},
			},
			"bowl":  {ID: "bowl", Name: domain.LocalizedText{"en": "Bowl"}, Price: decimal.NewFromInt(50)},
			"retro": {ID: "retro", Price: decimal.NewFromInt(10), IsAvailable: &unavailable},
		},
		regions: []domain.ShippingRegion{
			{ID: "north", Price: decimal.NewFromInt(25), IsActive: true},
			{ID: "south", Price: decimal.NewFromInt(40), IsActive: true},
		},
		coupons: map[string]decimal.Decimal{"BIG": decimal.NewFromInt(300), "TEN": decimal.NewFromInt(10)},
		users: map[string]domain.User{
			"sam@example.com": {ID: "u1", Name: "Sam", Email: "sam@example.com", Token: "tok-u1"},
		},
		carts:  map[string][]domain.CartItem{},
		orders: map[string]domain.Order{},
	}
}

func notFound(path string) error {
	return &remote.APIError{Method: "GET", Path: path, Status: 404, Message: "not found"}
}

func (b *fakeBackend) Categories(context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: "dogs", Name: domain.LocalizedText{"en": "Dogs"}}}, nil
}

func (b *fakeBackend) Products(_ context.Context, subcategory string) ([]domain.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.Product
	for _, id := range []string{"bowl", "collar", "retro"} {
		p := b.products[id]
		if subcategory == "" || p.SubcategoryID == subcategory {
			out = append(out, p)
		}
	}
	return out, nil
}

func (b *fakeBackend) Product(_ context.Context, id string) (*domain.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.products[id]
	if !ok {
		return nil, notFound("/products/" + id)
	}
	return &p, nil
}

func (b *fakeBackend) Order(ctx context.Context, id string) (*domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[id]
	if !ok {
		return nil, notFound("/orders/" + id)
	}
	return &o, nil
}

func (b *fakeBackend) Login(_ context.Context, creds domain.Credentials) (*domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[creds.Email]
	if !ok || creds.Password != "secret" {
		return nil, &remote.APIError{Method: "POST", Path: "/auth/login", Status: 401, Message: "bad credentials"}
	}
	return &u, nil
}

func (b *fakeBackend) Register(_ context.Context, reg domain.Registration) (*domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.users[reg.Email]; taken {
		return nil, &remote.APIError{Method: "POST", Path: "/auth/register", Status: 409, Message: "email taken"}
	}
	u := domain.User{ID: fmt.Sprintf("u%d", len(b.users)+1), Name: reg.Name, Email: reg.Email, Token: "tok-new"}
	b.users[reg.Email] = u
	return &u, nil
}

func (b *fakeBackend) UserCart(_ context.Context, userID string) ([]domain.CartItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return domain.CloneItems(b.carts[userID]), nil
}

func (b *fakeBackend) AddCartItem(_ context.Context, userID string, item domain.CartItem) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.carts[userID] = append(b.carts[userID], item)
	return nil
}

func (b *fakeBackend) UpdateCartItem(_ context.Context, userID, itemID string, quantity int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.carts[userID] {
		if b.carts[userID][i].ID == itemID {
			b.carts[userID][i].Quantity = quantity
		}
	}
	return nil
}

func (b *fakeBackend) RemoveCartItem(_ context.Context, userID, itemID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.carts[userID][:0]
	for _, it := range b.carts[userID] {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	b.carts[userID] = kept
	return nil
}

func (b *fakeBackend) ClearCart(_ context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.carts, userID)
	return nil
}

func (b *fakeBackend) ActiveShipping(context.Context) ([]domain.ShippingRegion, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.ShippingRegion(nil), b.regions...), nil
}

func (b *fakeBackend) ValidateCoupon(_ context.Context, code string, _ domain.Money) (*domain.CouponValidation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	amount, ok := b.coupons[code]
	if !ok {
		return nil, &remote.APIError{Method: "POST", Path: "/coupons/validate", Status: 400, Message: "coupon expired"}
	}
	return &domain.CouponValidation{Code: code, DiscountAmount: amount}, nil
}

func (b *fakeBackend) PlaceOrder(ctx context.Context, order domain.Order) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.orderErr != nil {
		return "", b.orderErr
	}
	order.ID = fmt.Sprintf("ord-%d", len(b.orders)+1)
	b.orders[order.ID] = order
	return order.ID, nil
}

var errUpstream = &remote.APIError{Method: "POST", Path: "/checkout", Status: 500, Message: "database down"}
