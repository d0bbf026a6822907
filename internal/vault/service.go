package vault

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"custodia/internal/audit"
	"custodia/internal/platform/metrics"
	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
)

//go:generate mockgen -source=service.go -destination=mocks/vault_mocks.go -package=mocks

// Ledger is the external balance ledger the vault settles against. The native
// asset is addressed by the reserved zero address; every other asset is a
// fungible-token contract address. Balances are never cached: the service
// queries live and the ledger's bookkeeping is authoritative.
type Ledger interface {
	BalanceOf(ctx context.Context, asset, account domain.Address) (uint64, error)
	Transfer(ctx context.Context, asset, from, to domain.Address, amount uint64) error
}

// Registrar mints ownership certificates when a vault hands control to the
// registry. Register is invoked mid-operation; its failure aborts the whole
// ownership transfer.
type Registrar interface {
	Register(ctx context.Context, vault, holder domain.Address) error
	Address() domain.Address
}

// Service is the vault state machine: balance custody, time-lock enforcement,
// access control, and the two ownership-transfer modes. Every mutating
// operation checks caller identity first, then (for withdrawals and lock
// changes) the time-lock, then performs the movement and emits its event.
// Downstream failure aborts the operation with no partial state and no event.
type Service struct {
	store    Store
	ledger   Ledger
	registry Registrar
	events   *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
	tracer   trace.Tracer
}

func NewService(store Store, ledger Ledger, registry Registrar, events *audit.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		ledger:   ledger,
		registry: registry,
		events:   events,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
		tracer:   otel.Tracer("custodia/vault"),
	}
}

// WithClock overrides the wall clock. Tests use it to advance past locks.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithdrawNative moves amount of the native asset from the vault to its
// owner. Zero-amount requests pass the full owner and lock gating and emit an
// event, but move nothing.
func (s *Service) WithdrawNative(ctx context.Context, caller, vaultAddr domain.Address, amount domain.Amount) error {
	ctx, span := s.tracer.Start(ctx, "vault.WithdrawNative")
	defer span.End()
	return s.withdraw(ctx, caller, vaultAddr, domain.NativeAsset, amount)
}

// WithdrawToken moves amount of the given fungible token from the vault to
// its owner, settling through the token ledger.
func (s *Service) WithdrawToken(ctx context.Context, caller, vaultAddr, token domain.Address, amount domain.Amount) error {
	ctx, span := s.tracer.Start(ctx, "vault.WithdrawToken",
		trace.WithAttributes(attribute.String("token", token.String())))
	defer span.End()
	if token.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "token address cannot be the zero address")
	}
	return s.withdraw(ctx, caller, vaultAddr, token, amount)
}

func (s *Service) withdraw(ctx context.Context, caller, vaultAddr, asset domain.Address, amount domain.Amount) error {
	v, err := s.find(ctx, vaultAddr)
	if err != nil {
		return err
	}
	if err := v.EnsureOwner(caller); err != nil {
		s.metrics.IncRejected("access_denied")
		return err
	}
	if err := v.EnsureUnlocked(s.now()); err != nil {
		s.metrics.IncRejected("time_locked")
		return err
	}

	balance, err := s.ledger.BalanceOf(ctx, asset, v.Address)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "ledger balance query failed", err)
	}
	if !amount.IsAll() && amount.Quantity() > balance {
		s.metrics.IncRejected("insufficient_balance")
		return dErrors.New(dErrors.CodeInsufficientBalance, "transfer amount exceeds balance")
	}
	resolved := amount.Resolve(balance)

	if resolved > 0 {
		if err := s.ledger.Transfer(ctx, asset, v.Address, v.Owner, resolved); err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "ledger transfer failed", err)
		}
	}

	if err := s.events.Emit(ctx, audit.Withdraw(v.Address, v.Owner, asset, resolved)); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "event emission failed", err)
	}

	kind := "token"
	if asset.IsZero() {
		kind = "native"
	}
	s.metrics.IncWithdrawal(kind)
	s.logger.InfoContext(ctx, "withdrawal completed",
		"vault", v.Address.String(),
		"asset", asset.String(),
		"amount", resolved,
	)
	return nil
}

// SetUnlockTime records a new unlock time. While a lock is active the call
// fails regardless of the new value: an owner cannot shorten, extend, or
// clear a running lock. Re-locking any time after expiry is allowed.
func (s *Service) SetUnlockTime(ctx context.Context, caller, vaultAddr domain.Address, newTime uint64) error {
	ctx, span := s.tracer.Start(ctx, "vault.SetUnlockTime")
	defer span.End()

	v, err := s.find(ctx, vaultAddr)
	if err != nil {
		return err
	}
	if err := v.EnsureOwner(caller); err != nil {
		s.metrics.IncRejected("access_denied")
		return err
	}
	if err := v.EnsureUnlocked(s.now()); err != nil {
		s.metrics.IncRejected("time_locked")
		return err
	}

	oldTime := v.UnlockTime
	v.UnlockTime = newTime
	if err := s.store.Save(ctx, v); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "vault save failed", err)
	}
	if err := s.events.Emit(ctx, audit.TimeLock(v.Address, v.Owner, oldTime, newTime)); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "event emission failed", err)
	}

	s.metrics.IncTimeLockSet()
	s.logger.InfoContext(ctx, "time-lock updated",
		"vault", v.Address.String(),
		"old_unlock_time", oldTime,
		"new_unlock_time", newTime,
	)
	return nil
}

// TransferOwnership hands the vault to a new identity. It is deliberately
// immune to the time-lock so a locked owner can still escape to a recovery
// key. No balances move.
func (s *Service) TransferOwnership(ctx context.Context, caller, vaultAddr, newOwner domain.Address) error {
	ctx, span := s.tracer.Start(ctx, "vault.TransferOwnership")
	defer span.End()

	v, err := s.find(ctx, vaultAddr)
	if err != nil {
		return err
	}
	if err := v.EnsureOwner(caller); err != nil {
		s.metrics.IncRejected("access_denied")
		return err
	}
	if newOwner.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "new owner cannot be the zero address")
	}

	v.Owner = newOwner
	if err := s.store.Save(ctx, v); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "vault save failed", err)
	}

	s.metrics.IncOwnershipTransfer("direct")
	s.logger.InfoContext(ctx, "ownership transferred",
		"vault", v.Address.String(),
		"new_owner", newOwner.String(),
	)
	return nil
}

// TransferOwnershipToRegistry hands control of the vault to the ownership
// registry: the registry mints a certificate binding the vault to the calling
// owner, then becomes the vault's recorded owner. Like the direct transfer it
// is immune to the time-lock. A registry failure aborts the whole operation.
func (s *Service) TransferOwnershipToRegistry(ctx context.Context, caller, vaultAddr, registryAddr domain.Address) error {
	ctx, span := s.tracer.Start(ctx, "vault.TransferOwnershipToRegistry")
	defer span.End()

	v, err := s.find(ctx, vaultAddr)
	if err != nil {
		return err
	}
	if err := v.EnsureOwner(caller); err != nil {
		s.metrics.IncRejected("access_denied")
		return err
	}
	if registryAddr != s.registry.Address() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown ownership registry")
	}

	if err := s.registry.Register(ctx, v.Address, caller); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "certificate registration failed", err)
	}

	v.Owner = registryAddr
	if err := s.store.Save(ctx, v); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "vault save failed", err)
	}

	s.metrics.IncOwnershipTransfer("registry")
	s.logger.InfoContext(ctx, "ownership transferred to registry",
		"vault", v.Address.String(),
		"holder", caller.String(),
	)
	return nil
}

// Snapshot is the read model for a vault: recorded state plus live balances.
type Snapshot struct {
	Address       domain.Address
	Owner         domain.Address
	UnlockTime    uint64
	Locked        bool
	NativeBalance uint64
	TokenBalances map[domain.Address]uint64
}

// Snapshot resolves the vault's native balance and the balances of the
// requested tokens concurrently.
func (s *Service) Snapshot(ctx context.Context, vaultAddr domain.Address, tokens []domain.Address) (*Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "vault.Snapshot")
	defer span.End()

	v, err := s.find(ctx, vaultAddr)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Address:       v.Address,
		Owner:         v.Owner,
		UnlockTime:    v.UnlockTime,
		Locked:        v.Locked(s.now()),
		TokenBalances: make(map[domain.Address]uint64, len(tokens)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		balance, err := s.ledger.BalanceOf(gctx, domain.NativeAsset, v.Address)
		if err != nil {
			return err
		}
		mu.Lock()
		snap.NativeBalance = balance
		mu.Unlock()
		return nil
	})
	for _, token := range tokens {
		g.Go(func() error {
			balance, err := s.ledger.BalanceOf(gctx, token, v.Address)
			if err != nil {
				return err
			}
			mu.Lock()
			snap.TokenBalances[token] = balance
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "ledger balance query failed", err)
	}
	return snap, nil
}

// Events returns the vault's audit trail in append order.
func (s *Service) Events(ctx context.Context, vaultAddr domain.Address) ([]audit.Event, error) {
	if _, err := s.find(ctx, vaultAddr); err != nil {
		return nil, err
	}
	return s.events.List(ctx, vaultAddr)
}

func (s *Service) find(ctx context.Context, addr domain.Address) (*Vault, error) {
	v, err := s.store.FindByAddress(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "vault not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "vault lookup failed", err)
	}
	return v, nil
}
