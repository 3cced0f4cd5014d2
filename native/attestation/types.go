// Package attestation implements the Attestation Engine component of
// spec.md §4.3: a verifier whitelist, an append-only per-commitment
// attestation log, and the derived health metrics and compliance predicate
// read off it. The engine never mutates the Commitment Ledger; it only
// reads rules and current value from it.
package attestation

import (
	"math/big"

	"nhbchain/crypto"
)

// Attestation is a single verifier-signed, timestamped record about a
// commitment. Data mirrors spec.md §3's `mapping<string,string>`; the two
// attestation types the engine appends internally (fee_generation,
// drawdown) carry their numeric payload as a single key in this map rather
// than a dedicated field, so callers reading the log back don't need a
// type switch to extract it.
type Attestation struct {
	CommitmentID    string
	AttestationType string
	Data            map[string]string
	Caller          crypto.Address
	Timestamp       int64
	Compliant       bool
}

// Clone returns a deep copy safe for callers to mutate.
func (a Attestation) Clone() Attestation {
	clone := a
	if a.Data != nil {
		clone.Data = make(map[string]string, len(a.Data))
		for k, v := range a.Data {
			clone.Data[k] = v
		}
	}
	return clone
}

// HealthMetrics are the derived, cached-per-commitment figures the
// compliance predicate and score are computed from.
type HealthMetrics struct {
	InitialValue     *big.Int
	CurrentValue     *big.Int
	DrawdownPercent  uint32
	FeesGenerated    *big.Int
	LastAttestation  uint64
	AttestationCount uint32
}

// Clone returns a deep copy safe for callers to mutate.
func (h *HealthMetrics) Clone() *HealthMetrics {
	if h == nil {
		return nil
	}
	clone := *h
	clone.InitialValue = cloneBig(h.InitialValue)
	clone.CurrentValue = cloneBig(h.CurrentValue)
	clone.FeesGenerated = cloneBig(h.FeesGenerated)
	return &clone
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// typeFeeGeneration and typeDrawdown are the attestation types the engine
// appends internally from RecordFees/RecordDrawdown; they need not be
// registered via RegisterAttestationType.
const (
	typeFeeGeneration = "fee_generation"
	typeDrawdown      = "drawdown"
)

// dataFeeAmount and dataDrawdownPercent are the Attestation.Data keys
// RecordFees/RecordDrawdown write their payload under.
const (
	dataFeeAmount      = "fee_amount"
	dataDrawdownPercent = "drawdown_percent"
)

// staleAfterSeconds is the "missed-attestation staleness" threshold used by
// CalculateComplianceScore.
const staleAfterSeconds uint64 = 7 * 24 * 3600

// AttestationsPage is the paginated result of GetAttestationsPage.
type AttestationsPage struct {
	Attestations []Attestation
	NextOffset   uint32
}
