package domain

import (
	"encoding/hex"
	"strings"

	dErrors "custodia/pkg/domain-errors"
)

// Address identifies an account on the ledger: a vault, an owner, a token
// contract, or the ownership registry. It is a 20-byte value rendered as a
// 0x-prefixed lowercase hex string.
//
// Usage: construct via ParseAddress at trust boundaries to enforce the format;
// direct casting bypasses validation.
type Address string

const addressHexLen = 40

// ZeroAddress is the reserved all-zero address. It is never a valid owner and
// doubles as the asset identifier for the native asset.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

// NativeAsset is the asset identifier used in Withdraw events for the native
// asset, as opposed to a fungible token's contract address.
const NativeAsset = ZeroAddress

// ParseAddress constructs an Address from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, missing the 0x
// prefix, the wrong length, or not valid hex.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address cannot be empty")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must be 0x-prefixed")
	}
	body := strings.ToLower(s[2:])
	if len(body) != addressHexLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must encode 20 bytes")
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address is not valid hex")
	}
	return Address("0x" + body), nil
}

// AddressFromBytes builds an Address from a raw 20-byte value.
func AddressFromBytes(b [20]byte) Address {
	return Address("0x" + hex.EncodeToString(b[:]))
}

// IsZero reports whether the address is the reserved all-zero value.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}
