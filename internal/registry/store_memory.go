package registry

import (
	"context"
	"sync"

	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// InMemoryStore keeps the certificate map in memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	certs map[domain.Address]Certificate
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{certs: make(map[domain.Address]Certificate)}
}

func (s *InMemoryStore) Put(_ context.Context, cert Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certs[cert.Vault] = cert
	return nil
}

func (s *InMemoryStore) FindByVault(_ context.Context, vault domain.Address) (Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cert, ok := s.certs[vault]; ok {
		return cert, nil
	}
	return Certificate{}, sentinel.ErrNotFound
}
