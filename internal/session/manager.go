// Package session issues and tracks the opaque session ids that key every
// per-visitor entry in storage.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultIdle  = 24 * time.Hour
	DefaultSweep = time.Minute
)

// ExpireFunc is called once for every session that went idle.
type ExpireFunc func(ctx context.Context, id string)

// Manager remembers when each session was last seen and expires the idle
// ones from a background loop.
type Manager struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time
	idle     time.Duration
	now      func() time.Time
	onExpire []ExpireFunc

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewManager(idle, sweep time.Duration, onExpire ...ExpireFunc) *Manager {
	if idle <= 0 {
		idle = DefaultIdle
	}
	if sweep <= 0 {
		sweep = DefaultSweep
	}
	m := &Manager{
		lastSeen: make(map[string]time.Time),
		idle:     idle,
		now:      time.Now,
		onExpire: onExpire,
		stop:     make(chan struct{}),
	}

	m.wg.Add(1)
	go m.cleanupLoop(sweep)

	return m
}

// Resolve returns the session for a client-supplied id. A missing or
// malformed id gets a fresh session; created reports that case.
func (m *Manager) Resolve(id string) (sid string, created bool) {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		created = true
	}
	m.mu.Lock()
	m.lastSeen[id] = m.now()
	m.mu.Unlock()
	return id, created
}

// Touch marks a known session as active. Unknown ids are ignored.
func (m *Manager) Touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lastSeen[id]; ok {
		m.lastSeen[id] = m.now()
	}
}

func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lastSeen)
}

func (m *Manager) cleanupLoop(every time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.expire(context.Background())
		case <-m.stop:
			return
		}
	}
}

// expire drops idle sessions and runs the hooks outside the lock.
func (m *Manager) expire(ctx context.Context) int {
	cutoff := m.now().Add(-m.idle)

	m.mu.Lock()
	var idle []string
	for id, seen := range m.lastSeen {
		if seen.Before(cutoff) {
			idle = append(idle, id)
			delete(m.lastSeen, id)
		}
	}
	m.mu.Unlock()

	for _, id := range idle {
		for _, fn := range m.onExpire {
			fn(ctx, id)
		}
	}
	if len(idle) > 0 {
		log.Debug().Int("expired", len(idle)).Msg("idle sessions expired")
	}
	return len(idle)
}

// Close stops the cleanup loop. It is safe to call more than once.
func (m *Manager) Close() {
	m.once.Do(func() { close(m.stop) })
	m.wg.Wait()
}
