package events

import (
	"strconv"

	"nhbchain/core/types"
)

const (
	TypeMint     = "token.mint"
	TypeTransfer = "token.transfer"
	TypeSettle   = "token.settle"
)

// Mint is emitted once a token has been minted and bound to a commitment.
type Mint struct {
	TokenID      uint32
	Owner        string
	CommitmentID string
	Timestamp    int64
}

func (Mint) EventType() string { return TypeMint }

func (e Mint) Event() *types.Event {
	return &types.Event{
		Type: TypeMint,
		Attributes: map[string]string{
			"tokenId":      strconv.FormatUint(uint64(e.TokenID), 10),
			"owner":        e.Owner,
			"commitmentId": e.CommitmentID,
			"timestamp":    strconv.FormatInt(e.Timestamp, 10),
		},
	}
}

// Transfer is emitted after a successful ownership transfer of an unlocked
// token.
type Transfer struct {
	TokenID   uint32
	From      string
	To        string
	Timestamp int64
}

func (Transfer) EventType() string { return TypeTransfer }

func (e Transfer) Event() *types.Event {
	return &types.Event{
		Type: TypeTransfer,
		Attributes: map[string]string{
			"tokenId":   strconv.FormatUint(uint64(e.TokenID), 10),
			"from":      e.From,
			"to":        e.To,
			"timestamp": strconv.FormatInt(e.Timestamp, 10),
		},
	}
}

// Settle is emitted when the token registry flips a token's lock off.
type Settle struct {
	TokenID   uint32
	Timestamp int64
}

func (Settle) EventType() string { return TypeSettle }

func (e Settle) Event() *types.Event {
	return &types.Event{
		Type: TypeSettle,
		Attributes: map[string]string{
			"tokenId":   strconv.FormatUint(uint64(e.TokenID), 10),
			"timestamp": strconv.FormatInt(e.Timestamp, 10),
		},
	}
}
