package registry

import (
	"context"

	"custodia/pkg/domain"
)

// Store persists certificates keyed by vault address.
type Store interface {
	Put(ctx context.Context, cert Certificate) error
	FindByVault(ctx context.Context, vault domain.Address) (Certificate, error)
}
