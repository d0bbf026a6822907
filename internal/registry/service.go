package registry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
)

// Cache fronts the certificate store for the hot OwnerOf path. Implementations
// must tolerate being nil-wired; the service treats a cache miss or cache
// error as a pass-through to the store.
type Cache interface {
	GetHolder(ctx context.Context, vault domain.Address) (domain.Address, error)
	SetHolder(ctx context.Context, vault, holder domain.Address) error
}

// Service is the ownership registry: it mints certificates when a vault hands
// control over, and resolves the current holder for a vault. The registry has
// its own on-ledger address, which becomes the recorded owner of every vault
// transferred to it.
type Service struct {
	addr   domain.Address
	store  Store
	cache  Cache
	logger *slog.Logger
	now    func() time.Time
}

func NewService(addr domain.Address, store Store, logger *slog.Logger) *Service {
	return &Service{
		addr:   addr,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithCache adds a read-through holder cache.
func (s *Service) WithCache(cache Cache) *Service {
	s.cache = cache
	return s
}

// Address returns the registry's own on-ledger address.
func (s *Service) Address() domain.Address {
	return s.addr
}

// Register mints or overwrites the certificate for a vault. The call site
// discipline is the access control: only a vault's owner-gated transfer
// reaches this method. Re-registering the same holder is an idempotent no-op;
// a different holder overwrites (last assignment wins).
func (s *Service) Register(ctx context.Context, vault, holder domain.Address) error {
	if holder.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "certificate holder cannot be the zero address")
	}

	existing, err := s.store.FindByVault(ctx, vault)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(dErrors.CodeInternal, "certificate lookup failed", err)
	}
	if err == nil && existing.Holder == holder {
		return nil
	}

	cert := Certificate{Vault: vault, Holder: holder, MintedAt: s.now()}
	if err := s.store.Put(ctx, cert); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "certificate mint failed", err)
	}
	if s.cache != nil {
		if err := s.cache.SetHolder(ctx, vault, holder); err != nil {
			s.logger.WarnContext(ctx, "certificate cache update failed",
				"vault", vault.String(),
				"error", err.Error(),
			)
		}
	}

	s.logger.InfoContext(ctx, "certificate minted",
		"vault", vault.String(),
		"holder", holder.String(),
	)
	return nil
}

// OwnerOf resolves the certificate holder for a vault. NotFound when no
// certificate has been minted.
func (s *Service) OwnerOf(ctx context.Context, vault domain.Address) (domain.Address, error) {
	if s.cache != nil {
		holder, err := s.cache.GetHolder(ctx, vault)
		if err == nil {
			return holder, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "certificate cache read failed",
				"vault", vault.String(),
				"error", err.Error(),
			)
		}
	}

	cert, err := s.store.FindByVault(ctx, vault)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "no certificate minted for vault")
		}
		return "", dErrors.Wrap(dErrors.CodeInternal, "certificate lookup failed", err)
	}
	if s.cache != nil {
		if err := s.cache.SetHolder(ctx, vault, cert.Holder); err != nil {
			s.logger.WarnContext(ctx, "certificate cache update failed",
				"vault", vault.String(),
				"error", err.Error(),
			)
		}
	}
	return cert.Holder, nil
}
