// Package token implements the Token Registry component of spec.md §4.1: an
// ownership token is minted per commitment, locked while the commitment is
// active, and becomes transferable only once settled.
package token

import (
	"math/big"

	"nhbchain/crypto"
)

// CommitmentType mirrors the commitment risk profile recorded on the token's
// metadata at mint time.
type CommitmentType string

const (
	CommitmentSafe       CommitmentType = "safe"
	CommitmentBalanced   CommitmentType = "balanced"
	CommitmentAggressive CommitmentType = "aggressive"
)

// Valid reports whether the commitment type is one of the three recognized,
// case-sensitive values.
func (c CommitmentType) Valid() bool {
	switch c {
	case CommitmentSafe, CommitmentBalanced, CommitmentAggressive:
		return true
	default:
		return false
	}
}

const (
	// MinCommitmentIDLen and MaxCommitmentIDLen bound the commitment_id
	// string accepted at mint time, per spec.md §4.1 and §8 B3.
	MinCommitmentIDLen = 1
	MaxCommitmentIDLen = 256

	secondsPerDay uint64 = 86400
)

// Metadata is the immutable record bound to a token at mint time.
type Metadata struct {
	CommitmentID     string
	DurationDays     uint32
	MaxLossPercent   uint32
	CommitmentType   CommitmentType
	InitialAmount    *big.Int
	AssetAddress     crypto.Address
	EarlyExitPenalty uint32
	CreatedAt        uint64
	ExpiresAt        uint64
}

// Clone returns a deep copy safe for callers to mutate.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	clone := *m
	if m.InitialAmount != nil {
		clone.InitialAmount = new(big.Int).Set(m.InitialAmount)
	} else {
		clone.InitialAmount = big.NewInt(0)
	}
	return &clone
}

// Token is a single minted ownership record.
type Token struct {
	ID       uint32
	Owner    crypto.Address
	IsActive bool
	Metadata Metadata
}

// Clone returns a deep copy safe for callers to mutate.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	clone := *t
	cloned := t.Metadata.Clone()
	clone.Metadata = *cloned
	return &clone
}

// saturatingExpiry computes createdAt + durationDays*86400, saturating at
// math.MaxUint64 rather than wrapping, per spec.md §4.1's overflow policy
// and §8 B1 ("duration_days = u32::MAX accepted with saturating
// expires_at"). A duration_days value this large never actually triggers
// saturation against a realistic createdAt, but the arithmetic is written
// to saturate rather than wrap regardless.
func saturatingExpiry(createdAt uint64, durationDays uint32) uint64 {
	const maxUint64 = ^uint64(0)
	span := uint64(durationDays)
	if span > maxUint64/secondsPerDay {
		return maxUint64
	}
	offset := span * secondsPerDay
	if offset > maxUint64-createdAt {
		return maxUint64
	}
	return createdAt + offset
}
