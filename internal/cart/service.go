// Package cart owns a session's cart: reconciling the local copy with the
// backend's per-user cart, and applying mutations local-first with best-effort
// remote sync.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/events"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/pricing"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/remote"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/storage"
)

// RemoteCart is the backend's per-user cart API.
type RemoteCart interface {
	UserCart(ctx context.Context, userID string) ([]domain.CartItem, error)
	AddCartItem(ctx context.Context, userID string, item domain.CartItem) error
	UpdateCartItem(ctx context.Context, userID, itemID string, quantity int) error
	RemoveCartItem(ctx context.Context, userID, itemID string) error
	ClearCart(ctx context.Context, userID string) error
}

type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Snapshot is a cart as one caller sees it right after a load or mutation.
type Snapshot struct {
	Owner     domain.Owner      `json:"owner"`
	Items     []domain.CartItem `json:"items"`
	ItemCount int               `json:"itemCount"`
	Source    Source            `json:"source"`
}

type Service struct {
	store  storage.Store
	remote RemoteCart
	bus    events.Publisher
	sfg    singleflight.Group
	locks  *sessionLocks
	now    func() time.Time
	newID  func() string
}

func NewService(store storage.Store, rc RemoteCart, bus events.Publisher) *Service {
	return &Service{
		store:  store,
		remote: rc,
		bus:    bus,
		locks:  newSessionLocks(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
}

// Load returns the session's authoritative cart. For a signed-in user the
// backend cart wins when it is non-empty and is written down to local storage;
// an empty or unreachable backend cart leaves the local cart in charge.
// Concurrent loads of one session share a single backend call.
func (s *Service) Load(ctx context.Context, session string) (Snapshot, error) {
	v, err, _ := s.sfg.Do(session, func() (interface{}, error) {
		unlock := s.locks.lock(session)
		defer unlock()
		return s.reconcile(ctx, session)
	})
	if err != nil {
		return Snapshot{}, err
	}
	snap := v.(Snapshot)
	snap.Items = domain.CloneItems(snap.Items)
	return snap, nil
}

func (s *Service) reconcile(ctx context.Context, session string) (Snapshot, error) {
	local := storage.NewLocal(s.store, session)
	user, err := local.User(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	items, err := local.Cart(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if user == nil {
		return snapshot(domain.Owner{}, items, SourceLocal), nil
	}

	owner := domain.Owner{UserID: user.ID}
	remoteItems, err := s.remote.UserCart(remote.WithToken(ctx, user.Token), user.ID)
	if err != nil {
		log.Warn().Err(err).Str("session", session).Str("user", user.ID).Msg("remote cart unavailable, using local cart")
		return snapshot(owner, items, SourceLocal), nil
	}
	if len(remoteItems) == 0 {
		return snapshot(owner, items, SourceLocal), nil
	}

	remoteItems = withIDs(remoteItems)
	if !domain.EqualItems(items, remoteItems) {
		if err := local.SaveCart(ctx, remoteItems); err != nil {
			return Snapshot{}, err
		}
		s.publish(session, events.ReasonReconciled, remoteItems)
	}
	return snapshot(owner, remoteItems, SourceRemote), nil
}

// Add puts item into the cart, merging into an existing line with the same
// product, options, add-ons and attachments.
func (s *Service) Add(ctx context.Context, session string, item domain.CartItem) (Snapshot, error) {
	if item.Quantity < 1 {
		return Snapshot{}, pricing.ErrInvalidQuantity
	}
	if _, err := pricing.ResolveLineItem(item); err != nil {
		return Snapshot{}, err
	}

	return s.mutate(ctx, session, events.ReasonItemAdded, func(items []domain.CartItem) ([]domain.CartItem, syncFunc, error) {
		sig := item.Signature()
		for i := range items {
			if items[i].Signature() != sig {
				continue
			}
			items[i].Quantity += item.Quantity
			merged := items[i]
			return items, func(ctx context.Context, userID string) error {
				return s.remote.UpdateCartItem(ctx, userID, merged.ID, merged.Quantity)
			}, nil
		}

		added := item.Clone()
		if added.ID == "" {
			added.ID = s.newID()
		}
		if added.AddedAt == nil {
			now := s.now()
			added.AddedAt = &now
		}
		items = append(items, added)
		return items, func(ctx context.Context, userID string) error {
			return s.remote.AddCartItem(ctx, userID, added)
		}, nil
	})
}

// UpdateQuantity sets a line's quantity. Zero removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, session, itemID string, quantity int) (Snapshot, error) {
	if quantity < 0 {
		return Snapshot{}, pricing.ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.Remove(ctx, session, itemID)
	}

	return s.mutate(ctx, session, events.ReasonQuantityChanged, func(items []domain.CartItem) ([]domain.CartItem, syncFunc, error) {
		i := indexOf(items, itemID)
		if i < 0 {
			return nil, nil, fmt.Errorf("%s: %w", itemID, ErrItemNotFound)
		}
		items[i].Quantity = quantity
		return items, func(ctx context.Context, userID string) error {
			return s.remote.UpdateCartItem(ctx, userID, itemID, quantity)
		}, nil
	})
}

func (s *Service) Remove(ctx context.Context, session, itemID string) (Snapshot, error) {
	return s.mutate(ctx, session, events.ReasonItemRemoved, func(items []domain.CartItem) ([]domain.CartItem, syncFunc, error) {
		i := indexOf(items, itemID)
		if i < 0 {
			return nil, nil, fmt.Errorf("%s: %w", itemID, ErrItemNotFound)
		}
		items = append(items[:i], items[i+1:]...)
		return items, func(ctx context.Context, userID string) error {
			return s.remote.RemoveCartItem(ctx, userID, itemID)
		}, nil
	})
}

func (s *Service) Clear(ctx context.Context, session string) (Snapshot, error) {
	return s.clear(ctx, session, events.ReasonCartCleared)
}

// ClearForOrder drops the ordered lines after an order was placed. Lines added
// since the order's snapshot was taken stay in the cart.
func (s *Service) ClearForOrder(ctx context.Context, session string, itemIDs []string) error {
	ordered := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		ordered[id] = struct{}{}
	}
	_, err := s.mutate(ctx, session, events.ReasonOrderPlaced, func(items []domain.CartItem) ([]domain.CartItem, syncFunc, error) {
		kept := make([]domain.CartItem, 0, len(items))
		var removed []string
		for _, it := range items {
			if _, ok := ordered[it.ID]; ok {
				removed = append(removed, it.ID)
				continue
			}
			kept = append(kept, it)
		}
		return kept, func(ctx context.Context, userID string) error {
			if len(kept) == 0 {
				return s.remote.ClearCart(ctx, userID)
			}
			var errs []error
			for _, id := range removed {
				if err := s.remote.RemoveCartItem(ctx, userID, id); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		}, nil
	})
	return err
}

func (s *Service) clear(ctx context.Context, session string, reason events.Reason) (Snapshot, error) {
	return s.mutate(ctx, session, reason, func([]domain.CartItem) ([]domain.CartItem, syncFunc, error) {
		return []domain.CartItem{}, func(ctx context.Context, userID string) error {
			return s.remote.ClearCart(ctx, userID)
		}, nil
	})
}

// Login records the signed-in user for the session and reconciles its cart
// against the user's backend cart.
func (s *Service) Login(ctx context.Context, session string, user domain.User) (Snapshot, error) {
	if user.ID == "" {
		return Snapshot{}, fmt.Errorf("user without id: %w", domain.ErrRejected)
	}
	unlock := s.locks.lock(session)
	if err := storage.NewLocal(s.store, session).SaveUser(ctx, user); err != nil {
		unlock()
		return Snapshot{}, err
	}
	unlock()

	s.sfg.Forget(session)
	return s.Load(ctx, session)
}

// Logout forgets the user; the local cart stays as a guest cart.
func (s *Service) Logout(ctx context.Context, session string) error {
	unlock := s.locks.lock(session)
	defer unlock()
	return storage.NewLocal(s.store, session).ClearUser(ctx)
}

type syncFunc func(ctx context.Context, userID string) error

// mutate applies change to the local cart under the session lock, persists
// it, notifies subscribers, then mirrors the change to the backend for a
// signed-in user. A failed mirror is logged and never rolls back the local write.
func (s *Service) mutate(ctx context.Context, session string, reason events.Reason,
	change func([]domain.CartItem) ([]domain.CartItem, syncFunc, error)) (Snapshot, error) {
	unlock := s.locks.lock(session)
	defer unlock()

	local := storage.NewLocal(s.store, session)
	user, err := local.User(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	items, err := local.Cart(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	items, sync, err := change(domain.CloneItems(items))
	if err != nil {
		return Snapshot{}, err
	}
	if err := local.SaveCart(ctx, items); err != nil {
		return Snapshot{}, err
	}
	s.publish(session, reason, items)

	owner := domain.Owner{}
	if user != nil {
		owner.UserID = user.ID
		if err := sync(remote.WithToken(ctx, user.Token), user.ID); err != nil {
			log.Warn().Err(err).Str("session", session).Str("user", user.ID).Str("reason", string(reason)).Msg("remote cart sync failed")
		}
	}
	return snapshot(owner, domain.CloneItems(items), SourceLocal), nil
}

func (s *Service) publish(session string, reason events.Reason, items []domain.CartItem) {
	s.bus.Publish(events.CartUpdated{
		SessionID: session,
		Reason:    reason,
		ItemCount: domain.CountItems(items),
		At:        s.now(),
	})
}

func snapshot(owner domain.Owner, items []domain.CartItem, src Source) Snapshot {
	if items == nil {
		items = []domain.CartItem{}
	}
	return Snapshot{Owner: owner, Items: items, ItemCount: domain.CountItems(items), Source: src}
}

func indexOf(items []domain.CartItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// withIDs fills in line ids the backend left out. The id is derived from the
// line's signature, so it is stable across loads and distinct for two
// configurations of one product.
func withIDs(items []domain.CartItem) []domain.CartItem {
	out := domain.CloneItems(items)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(out[i].Signature())).String()
		}
	}
	return out
}
