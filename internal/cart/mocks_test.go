package cart

import (
	"context"
	"sync"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
	"github.com/AhmedMaher123384/pet-hub-sub001/internal/events"
)

type mockRemote struct {
	m       sync.Mutex
	carts   map[string][]domain.CartItem
	getErr  error
	syncErr error
	calls   []string
	tokens  []string
	gets    int
	gate    chan struct{}
}

func newMockRemote() *mockRemote {
	return &mockRemote{carts: make(map[string][]domain.CartItem)}
}

func (m *mockRemote) UserCart(ctx context.Context, userID string) ([]domain.CartItem, error) {
	if m.gate != nil {
		<-m.gate
	}
	m.m.Lock()
	defer m.m.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	return domain.CloneItems(m.carts[userID]), nil
}

func (m *mockRemote) AddCartItem(_ context.Context, userID string, item domain.CartItem) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls = append(m.calls, "add:"+item.ID)
	if m.syncErr != nil {
		return m.syncErr
	}
	m.carts[userID] = append(m.carts[userID], item)
	return nil
}

func (m *mockRemote) UpdateCartItem(_ context.Context, userID, itemID string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls = append(m.calls, "update:"+itemID)
	if m.syncErr != nil {
		return m.syncErr
	}
	for i := range m.carts[userID] {
		if m.carts[userID][i].ID == itemID {
			m.carts[userID][i].Quantity = quantity
		}
	}
	return nil
}

func (m *mockRemote) RemoveCartItem(_ context.Context, userID, itemID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls = append(m.calls, "remove:"+itemID)
	return m.syncErr
}

func (m *mockRemote) ClearCart(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls = append(m.calls, "clear")
	if m.syncErr != nil {
		return m.syncErr
	}
	delete(m.carts, userID)
	return nil
}

func (m *mockRemote) callLog() []string {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockRemote) getCount() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.gets
}

type mockPublisher struct {
	m      sync.Mutex
	events []events.CartUpdated
}

func (p *mockPublisher) Publish(ev events.CartUpdated) {
	p.m.Lock()
	defer p.m.Unlock()
	p.events = append(p.events, ev)
}

func (p *mockPublisher) reasons() []events.Reason {
	p.m.Lock()
	defer p.m.Unlock()
	out := make([]events.Reason, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Reason)
	}
	return out
}
