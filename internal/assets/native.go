package assets

import (
	"context"
	"sync"

	id "givepool/pkg/domain"
	dErrors "givepool/pkg/domain-errors"
)

// NativeVault is the platform's own book of native-asset balances: free
// balances per account and escrowed balances per project. Every movement is
// all-or-nothing; an insufficient balance aborts with CodeTransferFailure
// and no partial debit.
type NativeVault struct {
	mu       sync.Mutex
	balances map[id.AccountID]int64
	escrow   map[id.ProjectID]int64
}

func NewNativeVault() *NativeVault {
	return &NativeVault{
		balances: make(map[id.AccountID]int64),
		escrow:   make(map[id.ProjectID]int64),
	}
}

// Credit adds native funds to an account. Deposits arrive from outside the
// core (payment rails, faucets in dev).
func (v *NativeVault) Credit(ctx context.Context, account id.AccountID, amount int64) error {
	if amount <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "credit amount must be positive")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balances[account] += amount
	return nil
}

// Balance returns an account's free native balance.
func (v *NativeVault) Balance(ctx context.Context, account id.AccountID) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balances[account], nil
}

// EscrowBalance returns the native funds held for a project.
func (v *NativeVault) EscrowBalance(ctx context.Context, projectID id.ProjectID) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.escrow[projectID], nil
}

// DebitToEscrow moves native funds from a donor's balance into a project's
// escrow.
func (v *NativeVault) DebitToEscrow(ctx context.Context, donor id.AccountID, projectID id.ProjectID, amount int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.balances[donor] < amount {
		return dErrors.New(dErrors.CodeTransferFailure, "insufficient native balance")
	}
	v.balances[donor] -= amount
	v.escrow[projectID] += amount
	return nil
}

// CreditEscrow books native funds straight into a project's escrow. This is
// the direct-transfer path: the funds arrived outside any donor balance.
func (v *NativeVault) CreditEscrow(ctx context.Context, projectID id.ProjectID, amount int64) error {
	if amount <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "credit amount must be positive")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.escrow[projectID] += amount
	return nil
}

// PayoutFromEscrow moves native funds from a project's escrow to an account.
// Used for the release fee split and for refunds.
func (v *NativeVault) PayoutFromEscrow(ctx context.Context, projectID id.ProjectID, to id.AccountID, amount int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.escrow[projectID] < amount {
		return dErrors.New(dErrors.CodeTransferFailure, "insufficient escrow balance")
	}
	v.escrow[projectID] -= amount
	v.balances[to] += amount
	return nil
}

// PayoutPairFromEscrow performs the release split atomically: both payouts
// succeed or neither is committed. No partial transfer is ever observable.
func (v *NativeVault) PayoutPairFromEscrow(ctx context.Context, projectID id.ProjectID, toA id.AccountID, amountA int64, toB id.AccountID, amountB int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.escrow[projectID] < amountA+amountB {
		return dErrors.New(dErrors.CodeTransferFailure, "insufficient escrow balance for payout")
	}
	v.escrow[projectID] -= amountA + amountB
	v.balances[toA] += amountA
	v.balances[toB] += amountB
	return nil
}

// Payout is one leg of a batch escrow payout.
type Payout struct {
	To     id.AccountID
	Amount int64
}

// PayoutBatchFromEscrow pays every leg or none. Used by the refund sweep so a
// mid-sweep failure cannot leave some donors paid and others not.
func (v *NativeVault) PayoutBatchFromEscrow(ctx context.Context, projectID id.ProjectID, payouts []Payout) error {
	var total int64
	for _, p := range payouts {
		if p.Amount <= 0 {
			return dErrors.New(dErrors.CodeInvalidAmount, "payout amount must be positive")
		}
		total += p.Amount
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.escrow[projectID] < total {
		return dErrors.New(dErrors.CodeTransferFailure, "insufficient escrow balance for payout")
	}
	v.escrow[projectID] -= total
	for _, p := range payouts {
		v.balances[p.To] += p.Amount
	}
	return nil
}
