package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in process memory. Used for tests and single-node
// deployments that can afford to lose sessions on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, session, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.sessions[session][key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Set(_ context.Context, session, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.sessions[session]
	if !ok {
		entries = make(map[string][]byte)
		s.sessions[session] = entries
	}
	entries[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, session, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.sessions[session]
	if !ok {
		return nil
	}
	delete(entries, key)
	if len(entries) == 0 {
		delete(s.sessions, session)
	}
	return nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, session)
	return nil
}

// Len returns the number of sessions holding at least one entry.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) Close() error {
	return nil
}
