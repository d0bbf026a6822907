// Package factory stamps out vault instances. It is deliberately thin: an
// address draw plus initial state, with all invariants living in the vault
// state machine itself.
package factory

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"custodia/internal/platform/metrics"
	"custodia/internal/vault"
	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

type Factory struct {
	store   vault.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func New(store vault.Store, m *metrics.Metrics, logger *slog.Logger) *Factory {
	return &Factory{store: store, metrics: m, logger: logger, now: time.Now}
}

// Deploy constructs a vault bound to initialOwner with a zero unlock time.
func (f *Factory) Deploy(ctx context.Context, initialOwner domain.Address) (*vault.Vault, error) {
	if initialOwner.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "initial owner cannot be the zero address")
	}

	addr, err := NewAddress()
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not generate vault address", err)
	}

	v := &vault.Vault{
		Address:    addr,
		Owner:      initialOwner,
		UnlockTime: 0,
		CreatedAt:  f.now(),
	}
	if err := f.store.Save(ctx, v); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "vault save failed", err)
	}

	f.metrics.IncVaultDeployed()
	f.logger.InfoContext(ctx, "vault deployed",
		"vault", v.Address.String(),
		"owner", initialOwner.String(),
	)
	return v, nil
}

// NewAddress draws a fresh random 20-byte address. Also used to give the
// ownership registry its on-ledger identity at startup.
func NewAddress() (domain.Address, error) {
	var raw [20]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("could not draw address bytes: %w", err)
	}
	return domain.AddressFromBytes(raw), nil
}
