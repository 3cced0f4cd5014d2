package events

import (
	"strconv"

	"nhbchain/core/types"
)

const (
	TypeCommitmentCreated = "commitment.created"
	TypeViolation         = "commitment.violation"
	TypeEarlyExit         = "commitment.early_exit"
)

// CommitmentCreated is emitted once a commitment has been persisted and its
// backing token minted.
type CommitmentCreated struct {
	CommitmentID string
	Owner        string
	Amount       string
	Timestamp    int64
}

func (CommitmentCreated) EventType() string { return TypeCommitmentCreated }

func (e CommitmentCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeCommitmentCreated,
		Attributes: map[string]string{
			"commitmentId": e.CommitmentID,
			"owner":        e.Owner,
			"amount":       e.Amount,
			"timestamp":    strconv.FormatInt(e.Timestamp, 10),
		},
	}
}

// Violation is emitted when UpdateValue observes a drawdown beyond the
// commitment's configured maximum loss.
type Violation struct {
	CommitmentID   string
	DrawdownPct    uint32
	MaxLossPercent uint32
	Timestamp      int64
}

func (Violation) EventType() string { return TypeViolation }

func (e Violation) Event() *types.Event {
	return &types.Event{
		Type: TypeViolation,
		Attributes: map[string]string{
			"commitmentId":   e.CommitmentID,
			"drawdownPct":    strconv.FormatUint(uint64(e.DrawdownPct), 10),
			"maxLossPercent": strconv.FormatUint(uint64(e.MaxLossPercent), 10),
			"timestamp":      strconv.FormatInt(e.Timestamp, 10),
		},
	}
}

// EarlyExit is emitted when the owner elects to terminate a commitment
// before expiry.
type EarlyExit struct {
	CommitmentID string
	Penalty      string
	Returned     string
	Timestamp    int64
}

func (EarlyExit) EventType() string { return TypeEarlyExit }

func (e EarlyExit) Event() *types.Event {
	return &types.Event{
		Type: TypeEarlyExit,
		Attributes: map[string]string{
			"commitmentId": e.CommitmentID,
			"penalty":      e.Penalty,
			"returned":     e.Returned,
			"timestamp":    strconv.FormatInt(e.Timestamp, 10),
		},
	}
}
