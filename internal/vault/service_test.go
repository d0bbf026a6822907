package vault

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"custodia/internal/audit"
	"custodia/internal/ledger"
	"custodia/internal/registry"
	"custodia/internal/vault/mocks"
	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

func testAddr(b byte) domain.Address {
	var raw [20]byte
	raw[19] = b
	return domain.AddressFromBytes(raw)
}

var (
	ownerAddr    = testAddr(0x01)
	strangerAddr = testAddr(0x02)
	recoveryAddr = testAddr(0x03)
	tokenAddr    = testAddr(0xaa)
)

type VaultServiceSuite struct {
	suite.Suite
	ctx context.Context

	store      *InMemoryStore
	bank       *ledger.Bank
	eventStore *audit.InMemoryStore
	registry   *registry.Service
	svc        *Service

	now time.Time
}

func TestVaultServiceSuite(t *testing.T) {
	suite.Run(t, new(VaultServiceSuite))
}

func (s *VaultServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = NewInMemoryStore()
	s.bank = ledger.NewBank()
	s.eventStore = audit.NewInMemoryStore()
	s.registry = registry.NewService(testAddr(0xff), registry.NewInMemoryStore(), logger)

	events := audit.NewPublisher(s.eventStore, logger)
	s.svc = NewService(s.store, s.bank, s.registry, events, nil, logger).
		WithClock(func() time.Time { return s.now })
}

// deploy seeds a vault owned by ownerAddr with a zero unlock time.
func (s *VaultServiceSuite) deploy() *Vault {
	v := &Vault{
		Address:   testAddr(0x10),
		Owner:     ownerAddr,
		CreatedAt: s.now,
	}
	s.Require().NoError(s.store.Save(s.ctx, v))
	return v
}

func (s *VaultServiceSuite) fundNative(v *Vault, amount uint64) {
	s.Require().NoError(s.bank.Deposit(s.ctx, domain.NativeAsset, v.Address, amount))
}

func (s *VaultServiceSuite) fundToken(v *Vault, amount uint64) {
	s.Require().NoError(s.bank.Deposit(s.ctx, tokenAddr, v.Address, amount))
}

func (s *VaultServiceSuite) nativeBalance(account domain.Address) uint64 {
	balance, err := s.bank.BalanceOf(s.ctx, domain.NativeAsset, account)
	s.Require().NoError(err)
	return balance
}

func (s *VaultServiceSuite) tokenBalance(account domain.Address) uint64 {
	balance, err := s.bank.BalanceOf(s.ctx, tokenAddr, account)
	s.Require().NoError(err)
	return balance
}

func (s *VaultServiceSuite) events(v *Vault) []audit.Event {
	events, err := s.eventStore.ListByVault(s.ctx, v.Address)
	s.Require().NoError(err)
	return events
}

func (s *VaultServiceSuite) unlockTimeAt(d time.Duration) uint64 {
	return uint64(s.now.Add(d).Unix())
}

func (s *VaultServiceSuite) TestWithdrawAccessControl() {
	v := s.deploy()
	s.fundNative(v, 100)

	s.Run("stranger cannot withdraw", func() {
		err := s.svc.WithdrawNative(s.ctx, strangerAddr, v.Address, domain.Exact(1))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
		s.EqualError(err, "caller is not the owner")
	})

	s.Run("zero-amount probe is still owner-gated", func() {
		err := s.svc.WithdrawNative(s.ctx, strangerAddr, v.Address, domain.Exact(0))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})

	s.Run("rejections leave balance untouched and emit nothing", func() {
		s.Equal(uint64(100), s.nativeBalance(v.Address))
		s.Empty(s.events(v))
	})

	s.Run("unknown vault reports not found", func() {
		err := s.svc.WithdrawNative(s.ctx, ownerAddr, testAddr(0x99), domain.Exact(1))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *VaultServiceSuite) TestWithdrawNative() {
	s.Run("exact amount moves to owner and emits one event", func() {
		v := s.deploy()
		s.fundNative(v, 100)

		s.Require().NoError(s.svc.WithdrawNative(s.ctx, ownerAddr, v.Address, domain.Exact(40)))

		s.Equal(uint64(60), s.nativeBalance(v.Address))
		s.Equal(uint64(40), s.nativeBalance(ownerAddr))

		events := s.events(v)
		s.Require().Len(events, 1)
		s.Equal(audit.KindWithdraw, events[0].Kind)
		s.Equal(ownerAddr, events[0].ActingOwner)
		s.Equal(domain.NativeAsset, events[0].Asset)
		s.Equal(uint64(40), events[0].Amount)
	})

	s.Run("zero amount is a gated no-op that still emits", func() {
		v := s.deploy()
		s.fundNative(v, 100)

		s.Require().NoError(s.svc.WithdrawNative(s.ctx, ownerAddr, v.Address, domain.Exact(0)))

		s.Equal(uint64(100), s.nativeBalance(v.Address))
		events := s.events(v)
		s.Require().Len(events, 1)
		s.Equal(uint64(0), events[0].Amount)
	})

	s.Run("full-balance request drains the vault", func() {
		v := s.deploy()
		s.fundNative(v, 137)

		s.Require().NoError(s.svc.WithdrawNative(s.ctx, ownerAddr, v.Address, domain.All()))

		s.Equal(uint64(0), s.nativeBalance(v.Address))
		s.Equal(uint64(137), s.nativeBalance(ownerAddr))

		events := s.events(v)
		s.Require().Len(events, 1)
		s.Equal(uint64(137), events[0].Amount)
	})

	s.Run("full-balance request on an empty vault succeeds", func() {
		v := s.deploy()

		s.Require().NoError(s.svc.WithdrawNative(s.ctx, ownerAddr, v.Address, domain.All()))

		events := s.events(v)
		s.Require().Len(events, 1)
		s.Equal(uint64(0), events[0].Amount)
	})

	s.Run("over-balance request is rejected, not clamped", func() {
		v := s.deploy()
		s.fundNative(v, 10)

		err := s.svc.WithdrawNative(s.ctx, ownerAddr, v.Address, domain.Exact(11))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))
		s.EqualError(err, "transfer amount exceeds balance")

		s.Equal(uint64(10), s.nativeBalance(v.Address))
		s.Empty(s.events(v))
	})
}

func (s *VaultServiceSuite) TestWithdrawToken() {
	s.Run("token withdrawal settles through the token book", func() {
		v := s.deploy()
		s.fundToken(v, 500)

		s.Require().NoError(s.svc.WithdrawToken(s.ctx, ownerAddr, v.Address, tokenAddr, domain.Exact(200)))

		s.Equal(uint64(300), s.tokenBalance(v.Address))
		s.Equal(uint64(200), s.tokenBalance(ownerAddr))

		events := s.events(v)
		s.Require().Len(events, 1)
		s.Equal(tokenAddr, events[0].Asset)
		s.Equal(uint64(200), events[0].Amount)
	})

	s.Run("insufficiency uses the same message as the native case", func() {
		v := s.deploy()
		s.fundToken(v, 5)

		err := s.svc.WithdrawToken(s.ctx, ownerAddr, v.Address, tokenAddr, domain.Exact(6))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))
		s.EqualError(err, "transfer amount exceeds balance")
	})

	s.Run("token balance does not satisfy a native request", func() {
		v := s.deploy()
		s.fundToken(v, 500)

		err := s.svc.WithdrawNative(s.ctx, ownerAddr, v.Address, domain.Exact(1))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))
	})

	s.Run("zero token address is rejected", func() {
		v := s.deploy()

		err := s.svc.WithdrawToken(s.ctx, ownerAddr, v.Address, domain.ZeroAddress, domain.Exact(0))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *VaultServiceSuite) TestTimeLock() {
	s.Run("first lock emits an event with a zero old value", func() {
		v := s.deploy()
		unlockAt := s.unlockTimeAt(time.Hour)

		s.Require().NoError(s.svc.SetUnlockTime(s.ctx, ownerAddr, v.Address, unlockAt))

		events := s.events(v)
		s.Require().Len(events, 1)
		s.Equal(audit.KindTimeLock, events[0].Kind)
		s.Equal(ownerAddr, events[0].ActingOwner)
		s.Equal(uint64(0), events[0].OldUnlockTime)
		s.Equal(unlockAt, events[0].NewUnlockTime)
	})

	s.Run("active lock blocks withdrawals including zero-amount probes", func() {
		v := s.deploy()
		s.fundNative(v, 100)
		s.Require().NoError(s.svc.SetUnlockTime(s.ctx, ownerAddr, v.Address, s.unlockTimeAt(time.Hour)))

		for _, amount := range []domain.Amount{domain.Exact(0), domain.Exact(1), domain.All()} {
			err := s.svc.WithdrawNative(s.ctx, ownerAddr, v.Address, amount)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeTimeLocked))
			s.EqualError(err, "time-locked")
		}
		err := s.svc.WithdrawToken(s.ctx, ownerAddr, v.Address, tokenAddr, domain.Exact(0))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeTimeLocked))

		s.Equal(uint64(100), s.nativeBalance(v.Address))
	})

	s.Run("active lock cannot be shortened, extended, or cleared", func() {
		v := s.deploy()
		unlockAt := s.unlockTimeAt(time.Hour)
		s.Require().NoError(s.svc.SetUnlockTime(s.ctx, ownerAddr, v.Address, unlockAt))

		for _, newTime := range []uint64{0, unlockAt - 1800, unlockAt + 3600} {
			err := s.svc.SetUnlockTime(s.ctx, ownerAddr, v.Address, newTime)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeTimeLocked))
		}

		stored, err := s.store.FindByAddress(s.ctx, v.Address)
		s.Require().NoError(err)
		s.Equal(unlockAt, stored.UnlockTime)
		s.Len(s.events(v), 1)
	})

	s.Run("lock expires by wall clock and the vault can re-lock", func() {
		v := s.deploy()
		s.fundNative(v, 100)
		unlockAt := s.unlockTimeAt(time.Hour)
		s.Require().NoError(s.svc.SetUnlockTime(s.ctx, ownerAddr, v.Address, unlockAt))

		s.now = s.now.Add(time.Hour)

		s.Require().NoError(s.svc.WithdrawNative(s.ctx, ownerAddr, v.Address, domain.Exact(10)))

		relockAt := s.unlockTimeAt(24 * time.Hour)
		s.Require().NoError(s.svc.SetUnlockTime(s.ctx, ownerAddr, v.Address, relockAt))

		events := s.events(v)
		s.Require().Len(events, 3)
		s.Equal(unlockAt, events[2].OldUnlockTime)
		s.Equal(relockAt, events[2].NewUnlockTime)
	})

	s.Run("stranger cannot set the lock", func() {
		v := s.deploy()
		err := s.svc.SetUnlockTime(s.ctx, strangerAddr, v.Address, s.unlockTimeAt(time.Hour))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})
}

func (s *VaultServiceSuite) TestTransferOwnership() {
	s.Run("owner hands the vault to a new identity", func() {
		v := s.deploy()
		s.Require().NoError(s.svc.TransferOwnership(s.ctx, ownerAddr, v.Address, recoveryAddr))

		stored, err := s.store.FindByAddress(s.ctx, v.Address)
		s.Require().NoError(err)
		s.Equal(recoveryAddr, stored.Owner)
	})

	s.Run("previous owner loses access, new owner gains it", func() {
		v := s.deploy()
		s.fundNative(v, 50)
		s.Require().NoError(s.svc.TransferOwnership(s.ctx, ownerAddr, v.Address, recoveryAddr))

		err := s.svc.WithdrawNative(s.ctx, ownerAddr, v.Address, domain.Exact(1))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))

		s.Require().NoError(s.svc.WithdrawNative(s.ctx, recoveryAddr, v.Address, domain.Exact(1)))
		s.Equal(uint64(1), s.nativeBalance(recoveryAddr))
	})

	s.Run("transfer succeeds while locked and moves no balance", func() {
		v := s.deploy()
		s.fundNative(v, 50)
		s.Require().NoError(s.svc.SetUnlockTime(s.ctx, ownerAddr, v.Address, s.unlockTimeAt(time.Hour)))

		s.Require().NoError(s.svc.TransferOwnership(s.ctx, ownerAddr, v.Address, recoveryAddr))

		s.Equal(uint64(50), s.nativeBalance(v.Address))
		s.Equal(uint64(0), s.nativeBalance(recoveryAddr))

		// The lock itself survives the transfer.
		err := s.svc.WithdrawNative(s.ctx, recoveryAddr, v.Address, domain.Exact(1))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeTimeLocked))
	})

	s.Run("zero address can never become owner", func() {
		v := s.deploy()
		err := s.svc.TransferOwnership(s.ctx, ownerAddr, v.Address, domain.ZeroAddress)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("stranger cannot transfer", func() {
		v := s.deploy()
		err := s.svc.TransferOwnership(s.ctx, strangerAddr, v.Address, recoveryAddr)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})
}

func (s *VaultServiceSuite) TestTransferOwnershipToRegistry() {
	s.Run("control moves to the registry and a certificate binds back", func() {
		v := s.deploy()

		s.Require().NoError(s.svc.TransferOwnershipToRegistry(s.ctx, ownerAddr, v.Address, s.registry.Address()))

		stored, err := s.store.FindByAddress(s.ctx, v.Address)
		s.Require().NoError(err)
		s.Equal(s.registry.Address(), stored.Owner)

		holder, err := s.registry.OwnerOf(s.ctx, v.Address)
		s.Require().NoError(err)
		s.Equal(ownerAddr, holder)
	})

	s.Run("succeeds while locked and moves no balance", func() {
		v := s.deploy()
		s.fundNative(v, 75)
		s.Require().NoError(s.svc.SetUnlockTime(s.ctx, ownerAddr, v.Address, s.unlockTimeAt(time.Hour)))

		s.Require().NoError(s.svc.TransferOwnershipToRegistry(s.ctx, ownerAddr, v.Address, s.registry.Address()))

		s.Equal(uint64(75), s.nativeBalance(v.Address))
	})

	s.Run("unknown registry address is rejected", func() {
		v := s.deploy()
		err := s.svc.TransferOwnershipToRegistry(s.ctx, ownerAddr, v.Address, testAddr(0xee))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		stored, findErr := s.store.FindByAddress(s.ctx, v.Address)
		s.Require().NoError(findErr)
		s.Equal(ownerAddr, stored.Owner)
	})

	s.Run("stranger cannot hand the vault over", func() {
		v := s.deploy()
		err := s.svc.TransferOwnershipToRegistry(s.ctx, strangerAddr, v.Address, s.registry.Address())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})
}

// TestSplitWithdrawalScenario walks the 10 = 3 + 7 scenario: the owner drains
// a funded vault in two withdrawals and ends up with exactly the deposit.
func (s *VaultServiceSuite) TestSplitWithdrawalScenario() {
	v := s.deploy()
	s.fundNative(v, 10)

	s.Require().NoError(s.svc.WithdrawNative(s.ctx, ownerAddr, v.Address, domain.Exact(3)))
	s.Require().NoError(s.svc.WithdrawNative(s.ctx, ownerAddr, v.Address, domain.Exact(7)))

	s.Equal(uint64(0), s.nativeBalance(v.Address))
	s.Equal(uint64(10), s.nativeBalance(ownerAddr))

	events := s.events(v)
	s.Require().Len(events, 2)
	s.Equal(uint64(3), events[0].Amount)
	s.Equal(uint64(7), events[1].Amount)
}

// TestTwoWeekLockScenario locks the vault for two weeks and verifies that the
// exact withdrawals that fail inside the window succeed after it.
func (s *VaultServiceSuite) TestTwoWeekLockScenario() {
	v := s.deploy()
	s.fundNative(v, 100)
	s.fundToken(v, 50)

	s.Require().NoError(s.svc.SetUnlockTime(s.ctx, ownerAddr, v.Address, s.unlockTimeAt(14*24*time.Hour)))

	err := s.svc.WithdrawNative(s.ctx, ownerAddr, v.Address, domain.Exact(100))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeLocked))

	err = s.svc.WithdrawToken(s.ctx, ownerAddr, v.Address, tokenAddr, domain.All())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeLocked))

	// One second before expiry the window still holds.
	s.now = s.now.Add(14*24*time.Hour - time.Second)
	err = s.svc.WithdrawNative(s.ctx, ownerAddr, v.Address, domain.Exact(100))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeLocked))

	s.now = s.now.Add(time.Second)

	s.Require().NoError(s.svc.WithdrawNative(s.ctx, ownerAddr, v.Address, domain.Exact(100)))
	s.Require().NoError(s.svc.WithdrawToken(s.ctx, ownerAddr, v.Address, tokenAddr, domain.All()))

	s.Equal(uint64(100), s.nativeBalance(ownerAddr))
	s.Equal(uint64(50), s.tokenBalance(ownerAddr))
}

func (s *VaultServiceSuite) TestSnapshot() {
	v := s.deploy()
	s.fundNative(v, 80)
	s.fundToken(v, 20)

	snap, err := s.svc.Snapshot(s.ctx, v.Address, []domain.Address{tokenAddr})
	s.Require().NoError(err)
	s.Equal(v.Address, snap.Address)
	s.Equal(ownerAddr, snap.Owner)
	s.False(snap.Locked)
	s.Equal(uint64(80), snap.NativeBalance)
	s.Equal(uint64(20), snap.TokenBalances[tokenAddr])

	s.Require().NoError(s.svc.SetUnlockTime(s.ctx, ownerAddr, v.Address, s.unlockTimeAt(time.Hour)))
	snap, err = s.svc.Snapshot(s.ctx, v.Address, nil)
	s.Require().NoError(err)
	s.True(snap.Locked)
}

// VaultServiceFailureSuite exercises downstream collaborator failures with
// mocks: a failing ledger or registry must abort the operation with no state
// change and no event.
type VaultServiceFailureSuite struct {
	suite.Suite
	ctx context.Context

	store      *InMemoryStore
	eventStore *audit.InMemoryStore
	ledger     *mocks.MockLedger
	registrar  *mocks.MockRegistrar
	svc        *Service
}

func TestVaultServiceFailureSuite(t *testing.T) {
	suite.Run(t, new(VaultServiceFailureSuite))
}

func (s *VaultServiceFailureSuite) SetupTest() {
	s.ctx = context.Background()
	ctrl := gomock.NewController(s.T())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = NewInMemoryStore()
	s.eventStore = audit.NewInMemoryStore()
	s.ledger = mocks.NewMockLedger(ctrl)
	s.registrar = mocks.NewMockRegistrar(ctrl)

	events := audit.NewPublisher(s.eventStore, logger)
	s.svc = NewService(s.store, s.ledger, s.registrar, events, nil, logger)
}

func (s *VaultServiceFailureSuite) seedVault() *Vault {
	v := &Vault{Address: testAddr(0x10), Owner: ownerAddr}
	s.Require().NoError(s.store.Save(s.ctx, v))
	return v
}

func (s *VaultServiceFailureSuite) TestBalanceQueryFailureAborts() {
	v := s.seedVault()
	s.ledger.EXPECT().
		BalanceOf(gomock.Any(), domain.NativeAsset, v.Address).
		Return(uint64(0), errors.New("ledger unreachable"))

	err := s.svc.WithdrawNative(s.ctx, ownerAddr, v.Address, domain.Exact(1))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	events, listErr := s.eventStore.ListByVault(s.ctx, v.Address)
	s.Require().NoError(listErr)
	s.Empty(events)
}

func (s *VaultServiceFailureSuite) TestTransferFailureEmitsNoEvent() {
	v := s.seedVault()
	s.ledger.EXPECT().
		BalanceOf(gomock.Any(), domain.NativeAsset, v.Address).
		Return(uint64(100), nil)
	s.ledger.EXPECT().
		Transfer(gomock.Any(), domain.NativeAsset, v.Address, ownerAddr, uint64(100)).
		Return(errors.New("transfer rejected"))

	err := s.svc.WithdrawNative(s.ctx, ownerAddr, v.Address, domain.All())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	events, listErr := s.eventStore.ListByVault(s.ctx, v.Address)
	s.Require().NoError(listErr)
	s.Empty(events)
}

func (s *VaultServiceFailureSuite) TestRegistryFailureLeavesOwnerUnchanged() {
	v := s.seedVault()
	registryAddr := testAddr(0xff)
	s.registrar.EXPECT().Address().Return(registryAddr)
	s.registrar.EXPECT().
		Register(gomock.Any(), v.Address, ownerAddr).
		Return(errors.New("mint failed"))

	err := s.svc.TransferOwnershipToRegistry(s.ctx, ownerAddr, v.Address, registryAddr)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	stored, findErr := s.store.FindByAddress(s.ctx, v.Address)
	s.Require().NoError(findErr)
	s.Equal(ownerAddr, stored.Owner)
}
