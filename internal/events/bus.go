// Package events carries the "cart updated" signal between every component
// that shows a session's cart. Mutations publish; SSE streams and the Kafka
// sink subscribe.
package events

import (
	"sync"
	"time"
)

type Reason string

const (
	ReasonItemAdded       Reason = "item_added"
	ReasonQuantityChanged Reason = "quantity_changed"
	ReasonItemRemoved     Reason = "item_removed"
	ReasonCartCleared     Reason = "cart_cleared"
	ReasonReconciled      Reason = "reconciled"
	ReasonCouponChanged   Reason = "coupon_changed"
	ReasonOrderPlaced     Reason = "order_placed"
)

// CartUpdated tells subscribers to re-read the session's cart. It carries a
// summary only; the stored cart stays the source of truth.
type CartUpdated struct {
	SessionID string    `json:"sessionId"`
	Reason    Reason    `json:"reason"`
	ItemCount int       `json:"itemCount"`
	At        time.Time `json:"at"`
	// Origin names the gateway instance that produced the event. Empty for
	// events raised in this process.
	Origin string `json:"origin,omitempty"`
}

type Handler func(CartUpdated)

// Publisher is what mutating services depend on.
type Publisher interface {
	Publish(CartUpdated)
}

type Bus struct {
	mu       sync.RWMutex
	next     uint64
	sessions map[string]map[uint64]Handler
	global   map[uint64]Handler
}

func NewBus() *Bus {
	return &Bus{
		sessions: make(map[string]map[uint64]Handler),
		global:   make(map[uint64]Handler),
	}
}

// Subscribe registers h for one session's events. The returned func removes it.
func (b *Bus) Subscribe(session string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	id := b.next
	subs, ok := b.sessions[session]
	if !ok {
		subs = make(map[uint64]Handler)
		b.sessions[session] = subs
	}
	subs[id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.sessions[session]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.sessions, session)
			}
		}
	}
}

// SubscribeAll registers h for every session's events.
func (b *Bus) SubscribeAll(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	id := b.next
	b.global[id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.global, id)
	}
}

// Publish delivers ev synchronously. Handlers run outside the lock and may
// subscribe or unsubscribe.
func (b *Bus) Publish(ev CartUpdated) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.sessions[ev.SessionID])+len(b.global))
	for _, h := range b.sessions[ev.SessionID] {
		handlers = append(handlers, h)
	}
	for _, h := range b.global {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// DropSession removes every subscriber of session.
func (b *Bus) DropSession(session string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, session)
}

func (b *Bus) Subscribers(session string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions[session])
}
