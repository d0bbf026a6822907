package vault

import (
	"time"

	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Vault is a custodial account bound to a single controlling identity. It
// holds no balance state of its own: the native and token balances live in
// the ledger and are always queried live.
type Vault struct {
	Address domain.Address
	Owner   domain.Address
	// UnlockTime is a unix timestamp in seconds. Zero means unlocked; any
	// value in the future means locked until then.
	UnlockTime uint64
	CreatedAt  time.Time
}

// EnsureOwner rejects any caller that is not the recorded owner.
func (v *Vault) EnsureOwner(caller domain.Address) error {
	if caller != v.Owner {
		return dErrors.New(dErrors.CodeAccessDenied, "caller is not the owner")
	}
	return nil
}

// Locked reports whether the vault's time-lock is active at now. A zero
// unlock time is never locked; an elapsed unlock time stays recorded but no
// longer locks.
func (v *Vault) Locked(now time.Time) bool {
	return v.UnlockTime != 0 && uint64(now.Unix()) < v.UnlockTime
}

// EnsureUnlocked rejects lock-gated operations while the time-lock is active.
func (v *Vault) EnsureUnlocked(now time.Time) error {
	if v.Locked(now) {
		return dErrors.New(dErrors.CodeTimeLocked, "time-locked")
	}
	return nil
}
