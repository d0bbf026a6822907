package vault

import (
	"context"

	"custodia/pkg/domain"
)

// Store is interface-driven to keep the state machine testable and to allow
// swapping in-memory and Postgres persistence without rewiring business code.
type Store interface {
	Save(ctx context.Context, v *Vault) error
	FindByAddress(ctx context.Context, addr domain.Address) (*Vault, error)
}
