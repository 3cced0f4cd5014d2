package common

import "sync/atomic"

// GlobalPause is the PauseView every engine in this repo is wired to.
// spec.md §6's Configuration block carries a single `paused` switch, not a
// per-module one (unlike the teacher's Node.IsPaused, which tracks pause
// state per module name) — so GlobalPause.IsPaused ignores its argument and
// answers the same way for every module.
type GlobalPause struct {
	paused atomic.Bool
}

// NewGlobalPause constructs a GlobalPause starting in the given state.
func NewGlobalPause(paused bool) *GlobalPause {
	p := &GlobalPause{}
	p.paused.Store(paused)
	return p
}

func (p *GlobalPause) IsPaused(string) bool { return p.paused.Load() }

// SetPaused updates the pause switch; safe for concurrent use.
func (p *GlobalPause) SetPaused(v bool) { p.paused.Store(v) }
