package attestation

import "math/big"

// LedgerView is the narrow read-only capability the engine needs from the
// Commitment Ledger: existence, and the rule/value fields VerifyCompliance
// and CalculateComplianceScore read, per spec.md §4.3 ("reads Ledger rules
// and current value") and §9's instruction to re-architect cross-component
// calls as injected capability interfaces rather than concrete types. A
// *commitment.Ledger satisfies this by duck typing, via the small exported
// wrapper methods on Ledger — this package never imports native/commitment
// for the type itself, only (in engine.go) for its exported DrawdownPercent
// helper, to avoid duplicating that formula.
type LedgerView interface {
	CommitmentExists(commitmentID string) (bool, error)
	// CommitmentTerms returns the fields needed to judge compliance: the
	// commitment's original amount, its current marked value, its
	// configured max-loss percent, and its minimum fee threshold. found is
	// false when the commitment does not exist.
	CommitmentTerms(commitmentID string) (amount, currentValue *big.Int, maxLossPercent uint32, minFeeThreshold uint64, found bool, err error)
}
