package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
)

// Entry keys. They match the browser storefront's local storage names so
// exported sessions stay readable by either side.
const (
	KeyCart             = "cart"
	KeyUser             = "user"
	KeyWishlist         = "wishlist"
	KeyThankYouOrder    = "thankYouOrder"
	KeyLastOrderID      = "lastOrderId"
	KeySelectedCurrency = "selectedCurrency"
	KeyAppliedCoupon    = "appliedCoupon"
)

// Local is the typed view of one session's entries.
type Local struct {
	store   Store
	session string
}

func NewLocal(store Store, session string) *Local {
	return &Local{store: store, session: session}
}

func (l *Local) Session() string {
	return l.session
}

// Cart returns the stored cart lines. A missing entry is an empty cart, and so
// is an entry that no longer decodes; the latter is logged and left in place
// until the next write replaces it.
func (l *Local) Cart(ctx context.Context) ([]domain.CartItem, error) {
	var items []domain.CartItem
	ok, err := l.loadJSON(ctx, KeyCart, &items)
	if err != nil || !ok {
		return nil, err
	}
	return items, nil
}

func (l *Local) SaveCart(ctx context.Context, items []domain.CartItem) error {
	if items == nil {
		items = []domain.CartItem{}
	}
	return l.saveJSON(ctx, KeyCart, items)
}

func (l *Local) ClearCart(ctx context.Context) error {
	return l.delete(ctx, KeyCart)
}

// User returns the signed-in user, or nil for a guest session.
func (l *Local) User(ctx context.Context) (*domain.User, error) {
	var u domain.User
	ok, err := l.loadJSON(ctx, KeyUser, &u)
	if err != nil || !ok || u.ID == "" {
		return nil, err
	}
	return &u, nil
}

func (l *Local) SaveUser(ctx context.Context, u domain.User) error {
	return l.saveJSON(ctx, KeyUser, u)
}

func (l *Local) ClearUser(ctx context.Context) error {
	return l.delete(ctx, KeyUser)
}

func (l *Local) Wishlist(ctx context.Context) ([]string, error) {
	var ids []string
	if _, err := l.loadJSON(ctx, KeyWishlist, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (l *Local) SaveWishlist(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return l.saveJSON(ctx, KeyWishlist, ids)
}

func (l *Local) ThankYouOrder(ctx context.Context) (*domain.Order, error) {
	var o domain.Order
	ok, err := l.loadJSON(ctx, KeyThankYouOrder, &o)
	if err != nil || !ok {
		return nil, err
	}
	return &o, nil
}

func (l *Local) SaveThankYouOrder(ctx context.Context, o domain.Order) error {
	return l.saveJSON(ctx, KeyThankYouOrder, o)
}

func (l *Local) LastOrderID(ctx context.Context) (string, error) {
	return l.loadString(ctx, KeyLastOrderID)
}

func (l *Local) SaveLastOrderID(ctx context.Context, id string) error {
	return l.saveString(ctx, KeyLastOrderID, id)
}

func (l *Local) Currency(ctx context.Context) (string, error) {
	return l.loadString(ctx, KeySelectedCurrency)
}

func (l *Local) SaveCurrency(ctx context.Context, code string) error {
	return l.saveString(ctx, KeySelectedCurrency, code)
}

// Coupon returns the applied coupon, or nil when none is active.
func (l *Local) Coupon(ctx context.Context) (*domain.Coupon, error) {
	var c domain.Coupon
	ok, err := l.loadJSON(ctx, KeyAppliedCoupon, &c)
	if err != nil || !ok || c.Code == "" {
		return nil, err
	}
	return &c, nil
}

func (l *Local) SaveCoupon(ctx context.Context, c domain.Coupon) error {
	return l.saveJSON(ctx, KeyAppliedCoupon, c)
}

func (l *Local) ClearCoupon(ctx context.Context) error {
	return l.delete(ctx, KeyAppliedCoupon)
}

// Forget removes every entry of the session.
func (l *Local) Forget(ctx context.Context) error {
	if err := l.store.DeleteSession(ctx, l.session); err != nil {
		return fmt.Errorf("forget session: %w", err)
	}
	return nil
}

func (l *Local) loadJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := l.store.Get(ctx, l.session, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Warn().Err(err).Str("session", l.session).Str("key", key).Msg("discarding unreadable entry")
		return false, nil
	}
	return true, nil
}

func (l *Local) saveJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := l.store.Set(ctx, l.session, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (l *Local) loadString(ctx context.Context, key string) (string, error) {
	raw, err := l.store.Get(ctx, l.session, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return string(raw), nil
}

func (l *Local) saveString(ctx context.Context, key, v string) error {
	if err := l.store.Set(ctx, l.session, key, []byte(v)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (l *Local) delete(ctx context.Context, key string) error {
	if err := l.store.Delete(ctx, l.session, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
