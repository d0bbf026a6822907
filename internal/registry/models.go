package registry

import (
	"time"

	"custodia/pkg/domain"
)

// Certificate binds a vault address to the identity that held the vault when
// control was handed to the registry. Exactly one live certificate exists per
// vault; re-registration overwrites the holder (last assignment wins).
type Certificate struct {
	Vault    domain.Address
	Holder   domain.Address
	MintedAt time.Time
}
