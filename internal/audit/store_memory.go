package audit

import (
	"context"
	"sync"

	"custodia/pkg/domain"
)

// InMemoryStore keeps the event log per vault in append order.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[domain.Address][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[domain.Address][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.Vault] = append(s.events[event.Vault], event)
	return nil
}

func (s *InMemoryStore) ListByVault(_ context.Context, vault domain.Address) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[vault]...), nil
}
