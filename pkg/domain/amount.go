package domain

import (
	"strconv"

	dErrors "custodia/pkg/domain-errors"
)

// Amount is a withdrawal request size: either an exact quantity or "the full
// current balance". The tagged form replaces sign-based sentinel encodings so
// an amount can never be both negative and meaningful.
type Amount struct {
	all      bool
	quantity uint64
}

// Exact requests a withdrawal of precisely q units.
func Exact(q uint64) Amount {
	return Amount{quantity: q}
}

// All requests a withdrawal of the full current balance, whatever it is.
// It never fails on sufficiency, including when the balance is zero.
func All() Amount {
	return Amount{all: true}
}

// ParseAmount constructs an Amount from external input: the literal "all" or a
// non-negative decimal quantity.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Amount{}, dErrors.New(dErrors.CodeInvalidInput, "amount cannot be empty")
	}
	if s == "all" {
		return All(), nil
	}
	q, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Amount{}, dErrors.New(dErrors.CodeInvalidInput, "amount must be \"all\" or a non-negative integer")
	}
	return Exact(q), nil
}

// IsAll reports whether this is a full-balance request.
func (a Amount) IsAll() bool {
	return a.all
}

// Quantity returns the exact quantity requested. Only meaningful when IsAll
// is false.
func (a Amount) Quantity() uint64 {
	return a.quantity
}

// Resolve returns the concrete quantity to move given the live balance.
// Callers must validate sufficiency for exact amounts before moving anything.
func (a Amount) Resolve(balance uint64) uint64 {
	if a.all {
		return balance
	}
	return a.quantity
}

func (a Amount) String() string {
	if a.all {
		return "all"
	}
	return strconv.FormatUint(a.quantity, 10)
}
