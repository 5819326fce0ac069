// Package wallet provides the fund movement implementations behind the
// ledger's transfer step.
package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"chariledger/internal/ledger/ports"
)

// AccountBook is an in-process balance map. It applies a multi-leg
// move all-or-nothing: the debit is checked against the sum of all
// legs before any credit happens.
type AccountBook struct {
	mu       sync.Mutex
	balances map[common.Address]uint64
}

func NewAccountBook() *AccountBook {
	return &AccountBook{balances: make(map[common.Address]uint64)}
}

// Deposit credits an account.
func (b *AccountBook) Deposit(addr common.Address, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[addr] += amount
}

// Balance returns the current balance of an account.
func (b *AccountBook) Balance(addr common.Address) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[addr]
}

func (b *AccountBook) Move(_ context.Context, from common.Address, transfers ...ports.Transfer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var total uint64
	for _, t := range transfers {
		if t.Amount > ^uint64(0)-total {
			return fmt.Errorf("transfer total overflows")
		}
		total += t.Amount
	}
	if b.balances[from] < total {
		return fmt.Errorf("insufficient funds: have %d, need %d", b.balances[from], total)
	}

	b.balances[from] -= total
	for _, t := range transfers {
		b.balances[t.To] += t.Amount
	}
	return nil
}

// NopMover performs no movement and never fails, for deployments where
// settlement happens outside the ledger.
type NopMover struct{}

func (NopMover) Move(context.Context, common.Address, ...ports.Transfer) error { return nil }
