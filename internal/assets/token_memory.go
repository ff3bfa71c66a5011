package assets

import (
	"context"
	"sync"

	id "givepool/pkg/domain"
	dErrors "givepool/pkg/domain-errors"
)

// MemoryToken is an in-process TransferProvider for one fungible asset.
// Used in development and tests; real assets plug in their own providers.
type MemoryToken struct {
	mu       sync.Mutex
	balances map[id.AccountID]int64
	platform int64
}

func NewMemoryToken() *MemoryToken {
	return &MemoryToken{balances: make(map[id.AccountID]int64)}
}

// Mint credits an account, for seeding test scenarios.
func (t *MemoryToken) Mint(account id.AccountID, amount int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[account] += amount
}

// BalanceOf returns an account's token balance.
func (t *MemoryToken) BalanceOf(account id.AccountID) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[account]
}

// TransferFrom pulls amount from the payer into the payee's holding.
func (t *MemoryToken) TransferFrom(ctx context.Context, from, to id.AccountID, amount int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if amount <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "transfer amount must be positive")
	}
	if t.balances[from] < amount {
		return dErrors.New(dErrors.CodeTransferFailure, "insufficient token balance")
	}
	t.balances[from] -= amount
	t.balances[to] += amount
	return nil
}

// Transfer pushes amount from the platform holding to the payee.
func (t *MemoryToken) Transfer(ctx context.Context, to id.AccountID, amount int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if amount <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "transfer amount must be positive")
	}
	if t.platform < amount {
		return dErrors.New(dErrors.CodeTransferFailure, "insufficient platform balance")
	}
	t.platform -= amount
	t.balances[to] += amount
	return nil
}
