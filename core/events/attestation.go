package events

import (
	"strconv"

	"nhbchain/core/types"
)

const TypeAttested = "attestation.recorded"

// Attested is emitted after a verifier's attestation has been appended to a
// commitment's log.
type Attested struct {
	CommitmentID    string
	AttestationType string
	Verifier        string
	Timestamp       int64
}

func (Attested) EventType() string { return TypeAttested }

func (e Attested) Event() *types.Event {
	return &types.Event{
		Type: TypeAttested,
		Attributes: map[string]string{
			"commitmentId":    e.CommitmentID,
			"attestationType": e.AttestationType,
			"verifier":        e.Verifier,
			"timestamp":       strconv.FormatInt(e.Timestamp, 10),
		},
	}
}
