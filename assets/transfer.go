// Package assets implements the external fungible-asset capability
// spec.md §6 describes as "consumed": a minimal transfer interface the
// Commitment Ledger invokes during create, settle, and early-exit, with its
// own authorization model.
package assets

import (
	"errors"
	"math/big"
	"sync"

	"nhbchain/crypto"
)

// ErrTransferFailed is returned by Transferer implementations on any
// debit/credit failure (insufficient balance, frozen account, and so on).
// The Ledger maps it to its own AssetTransferFailed error code.
var ErrTransferFailed = errors.New("assets: transfer failed")

// Transferer is the fungible-asset capability the Ledger is constructed
// with. Implementations own their own authorization model; Transfer simply
// reports success or failure.
type Transferer interface {
	Transfer(asset, from, to crypto.Address, amount *big.Int) error
}

// MemLedger is an in-memory Transferer used by tests and standalone
// deployments without a live asset contract wired in. Balances are keyed by
// (asset, holder); credits to the zero address are treated as a mint.
type MemLedger struct {
	mu       sync.Mutex
	balances map[string]*big.Int
}

// NewMemLedger constructs an empty in-memory asset ledger.
func NewMemLedger() *MemLedger {
	return &MemLedger{balances: make(map[string]*big.Int)}
}

func balanceKey(asset, holder crypto.Address) string {
	return asset.String() + "|" + holder.String()
}

// Credit adds amount to holder's balance of asset, used by tests to seed
// starting balances.
func (m *MemLedger) Credit(asset, holder crypto.Address, amount *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := balanceKey(asset, holder)
	bal, ok := m.balances[key]
	if !ok {
		bal = big.NewInt(0)
	}
	m.balances[key] = new(big.Int).Add(bal, amount)
}

// BalanceOf reports holder's current balance of asset.
func (m *MemLedger) BalanceOf(asset, holder crypto.Address) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal, ok := m.balances[balanceKey(asset, holder)]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(bal)
}

// Transfer debits from and credits to by amount. A zero-value from or to
// address is treated as an unconstrained mint/burn endpoint so the Ledger's
// custody account needs no pre-funded balance.
func (m *MemLedger) Transfer(asset, from, to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrTransferFailed
	}
	if amount.Sign() == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if !from.IsZero() {
		key := balanceKey(asset, from)
		bal, ok := m.balances[key]
		if !ok || bal.Cmp(amount) < 0 {
			return ErrTransferFailed
		}
		m.balances[key] = new(big.Int).Sub(bal, amount)
	}
	if !to.IsZero() {
		key := balanceKey(asset, to)
		bal, ok := m.balances[key]
		if !ok {
			bal = big.NewInt(0)
		}
		m.balances[key] = new(big.Int).Add(bal, amount)
	}
	return nil
}
