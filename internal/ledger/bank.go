// Package ledger provides the in-process balance ledger. It plays the role of
// the external fungible-token ledger and the native-asset accounting in one
// book set: the native asset is the zero address, every other asset is a
// token contract address.
package ledger

import (
	"context"
	"errors"
	"sync"

	"custodia/pkg/domain"
)

// ErrInsufficientFunds matches the standard ledger failure for a transfer
// larger than the sender's balance.
var ErrInsufficientFunds = errors.New("transfer amount exceeds balance")

// Bank is a thread-safe multi-asset balance ledger.
type Bank struct {
	mu sync.RWMutex
	// books maps asset -> account -> balance.
	books map[domain.Address]map[domain.Address]uint64
}

func NewBank() *Bank {
	return &Bank{books: make(map[domain.Address]map[domain.Address]uint64)}
}

// Deposit credits an account. It is how value enters the system: funding
// vaults in tests, seeding local runs.
func (b *Bank) Deposit(_ context.Context, asset, account domain.Address, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.book(asset)[account] += amount
	return nil
}

func (b *Bank) BalanceOf(_ context.Context, asset, account domain.Address) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.books[asset][account], nil
}

// Transfer moves amount from one account to another within an asset's book.
// A transfer exceeding the sender's balance fails atomically.
func (b *Bank) Transfer(_ context.Context, asset, from, to domain.Address, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	book := b.book(asset)
	if book[from] < amount {
		return ErrInsufficientFunds
	}
	book[from] -= amount
	book[to] += amount
	return nil
}

func (b *Bank) book(asset domain.Address) map[domain.Address]uint64 {
	book, ok := b.books[asset]
	if !ok {
		book = make(map[domain.Address]uint64)
		b.books[asset] = book
	}
	return book
}
