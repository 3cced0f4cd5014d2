package events

import (
	"strconv"

	"nhbchain/core/types"
)

const (
	TypePause   = "system.pause"
	TypeUnpause = "system.unpause"
)

// Pause is emitted when an admin halts mutating operations.
type Pause struct {
	Admin     string
	Timestamp int64
}

func (Pause) EventType() string { return TypePause }

func (e Pause) Event() *types.Event {
	return &types.Event{
		Type: TypePause,
		Attributes: map[string]string{
			"admin":     e.Admin,
			"timestamp": strconv.FormatInt(e.Timestamp, 10),
		},
	}
}

// Unpause is emitted when an admin resumes mutating operations.
type Unpause struct {
	Admin     string
	Timestamp int64
}

func (Unpause) EventType() string { return TypeUnpause }

func (e Unpause) Event() *types.Event {
	return &types.Event{
		Type: TypeUnpause,
		Attributes: map[string]string{
			"admin":     e.Admin,
			"timestamp": strconv.FormatInt(e.Timestamp, 10),
		},
	}
}
