package storage

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
)

func TestLocal_CartRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	l := NewLocal(store, "sess")

	items, err := l.Cart(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	price := decimal.NewFromInt(100)
	require.NoError(t, l.SaveCart(ctx, []domain.CartItem{{ID: "a", ProductID: "p", Quantity: 2, BasePrice: &price}}))

	raw, err := store.Get(ctx, "sess", KeyCart)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"basePrice":100`)

	items, err = l.Cart(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	require.NoError(t, l.ClearCart(ctx))
	items, err = l.Cart(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLocal_CorruptCartIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "sess", KeyCart, []byte(`{not json`)))

	items, err := NewLocal(store, "sess").Cart(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLocal_StringEntriesAreRaw(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	l := NewLocal(store, "sess")

	require.NoError(t, l.SaveCurrency(ctx, "SAR"))
	require.NoError(t, l.SaveLastOrderID(ctx, "ord-7"))

	raw, err := store.Get(ctx, "sess", KeySelectedCurrency)
	require.NoError(t, err)
	assert.Equal(t, "SAR", string(raw))

	id, err := l.LastOrderID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ord-7", id)
}

func TestLocal_UserCouponWishlist(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(NewMemoryStore(), "sess")

	u, err := l.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	require.NoError(t, l.SaveUser(ctx, domain.User{ID: "u1", Name: "Sam"}))
	u, err = l.User(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u1", u.ID)
	require.NoError(t, l.ClearUser(ctx))
	u, _ = l.User(ctx)
	assert.Nil(t, u)

	c, err := l.Coupon(ctx)
	require.NoError(t, err)
	assert.Nil(t, c)
	require.NoError(t, l.SaveCoupon(ctx, domain.Coupon{Code: "SAVE", DiscountAmount: decimal.NewFromInt(5)}))
	c, err = l.Coupon(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SAVE", c.Code)

	require.NoError(t, l.SaveWishlist(ctx, []string{"p1", "p2"}))
	w, err := l.Wishlist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, w)

	require.NoError(t, l.Forget(ctx))
	w, _ = l.Wishlist(ctx)
	assert.Empty(t, w)
}
