// Package commitment implements the Commitment Ledger component of
// spec.md §4.2: it owns the active→settled|violated|early_exit state
// machine for a locked asset position, and drives the Token Registry's
// mint/settle calls as the position is opened and closed.
package commitment

import (
	"math/big"

	"nhbchain/crypto"
	"nhbchain/native/token"
)

// Status is a commitment's position in the state machine. Only Active is
// non-terminal; every other value is absorbing.
type Status string

const (
	StatusActive    Status = "active"
	StatusSettled   Status = "settled"
	StatusViolated  Status = "violated"
	StatusEarlyExit Status = "early_exit"
)

func (s Status) Terminal() bool {
	return s != StatusActive
}

// Rules are the immutable terms a commitment is created under.
type Rules struct {
	DurationDays     uint32
	MaxLossPercent   uint32
	CommitmentType   token.CommitmentType
	EarlyExitPenalty uint32
	MinFeeThreshold  uint64
	GracePeriodDays  uint32
}

func (r Rules) validate() error {
	if r.DurationDays < 1 {
		return ErrInvalidDuration
	}
	if r.MaxLossPercent > 100 {
		return ErrInvalidMaxLoss
	}
	if r.EarlyExitPenalty > 100 {
		return ErrInvalidMaxLoss
	}
	if !r.CommitmentType.Valid() {
		return ErrInvalidCommitmentType
	}
	return nil
}

// Commitment is the ledger's core record: the owner's locked position, its
// current marked value, and the rules it is bound by.
type Commitment struct {
	ID           string
	Owner        crypto.Address
	Amount       *big.Int
	CurrentValue *big.Int
	Asset        crypto.Address
	Rules        Rules
	Status       Status
	CreatedAt    uint64
	ExpiresAt    uint64
	NFTTokenID   uint32
}

// Clone returns a deep copy safe for callers to mutate.
func (c *Commitment) Clone() *Commitment {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Amount = cloneBig(c.Amount)
	clone.CurrentValue = cloneBig(c.CurrentValue)
	return &clone
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
