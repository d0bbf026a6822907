package audit

import (
	"time"

	"github.com/google/uuid"

	"custodia/pkg/domain"
)

// Kind discriminates the two event shapes a vault emits.
type Kind string

const (
	KindWithdraw Kind = "withdraw"
	KindTimeLock Kind = "timelock"
)

// Event is emitted from the vault state machine to capture successful
// withdrawals and time-lock changes. Keep it transport-agnostic so stores and
// sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Timestamp time.Time
	Vault     domain.Address
	Kind      Kind

	// ActingOwner is the owner that performed the operation.
	ActingOwner domain.Address

	// Withdraw fields. Asset is the zero address for the native asset and the
	// token contract address otherwise; Amount is the quantity actually moved
	// after full-balance resolution.
	Asset  domain.Address
	Amount uint64

	// TimeLock fields: the unlock time before and after the change, unix
	// seconds, zero meaning unlocked.
	OldUnlockTime uint64
	NewUnlockTime uint64
}

// Withdraw builds a Withdraw event.
func Withdraw(vault, actingOwner, asset domain.Address, amount uint64) Event {
	return Event{
		Vault:       vault,
		Kind:        KindWithdraw,
		ActingOwner: actingOwner,
		Asset:       asset,
		Amount:      amount,
	}
}

// TimeLock builds a TimeLock event.
func TimeLock(vault, actingOwner domain.Address, oldTime, newTime uint64) Event {
	return Event{
		Vault:         vault,
		Kind:          KindTimeLock,
		ActingOwner:   actingOwner,
		OldUnlockTime: oldTime,
		NewUnlockTime: newTime,
	}
}
