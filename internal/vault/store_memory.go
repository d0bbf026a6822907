package vault

import (
	"context"
	"sync"

	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// InMemoryStore keeps vault state in a map. It favors clarity over
// performance and is the default store for tests and local runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	vaults map[domain.Address]Vault
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{vaults: make(map[domain.Address]Vault)}
}

func (s *InMemoryStore) Save(_ context.Context, v *Vault) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vaults[v.Address] = *v
	return nil
}

func (s *InMemoryStore) FindByAddress(_ context.Context, addr domain.Address) (*Vault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.vaults[addr]; ok {
		copied := v
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}
