package models

import (
	"time"
)

// Phase identifies a stage of a session.
type Phase string

const (
	PhaseSetup        Phase = "SETUP"
	PhasePresentation Phase = "PRESENTATION"
	PhaseQAndA        Phase = "Q_AND_A"
	PhaseComplete     Phase = "COMPLETE"
)

// PhaseOrder is the fixed order of the non-terminal phases.
var PhaseOrder = []Phase{PhaseSetup, PhasePresentation, PhaseQAndA}

// IsTerminal reports whether p is the Complete sentinel.
func (p Phase) IsTerminal() bool {
	return p == PhaseComplete
}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseSetup, PhasePresentation, PhaseQAndA, PhaseComplete:
		return true
	}
	return false
}

// order returns the position of p in PhaseOrder, or -1.
func (p Phase) order() int {
	for i, candidate := range PhaseOrder {
		if candidate == p {
			return i
		}
	}
	return -1
}

// TickMode controls when the per-second tick cue fires.
type TickMode string

const (
	TickModeNone        TickMode = "NONE"
	TickModeLastTen     TickMode = "LAST_TEN"
	TickModeEverySecond TickMode = "EVERY_SECOND"
)

// Valid reports whether m is a known tick mode.
func (m TickMode) Valid() bool {
	switch m {
	case TickModeNone, TickModeLastTen, TickModeEverySecond:
		return true
	}
	return false
}

// PhaseConfig holds the timing of one phase.
type PhaseConfig struct {
	DurationSeconds int    `json:"durationSeconds"`
	WarningSeconds  int    `json:"warningSeconds"` // 0 disables the warning cue
	Label           string `json:"label"`
}

// SessionConfig describes a whole session. Phases absent from the map are
// skipped by the sequence.
type SessionConfig struct {
	Phases            map[Phase]PhaseConfig `json:"phases"`
	AutoAdvance       bool                  `json:"autoAdvance"`
	SoundEnabled      bool                  `json:"soundEnabled"`
	TickMode          TickMode              `json:"tickMode"`
	TotalPresenters   *int                  `json:"totalPresenters,omitempty"` // nil means unbounded
	StartingPresenter int                   `json:"startingPresenter"`
}

// Sequence returns the configured non-terminal phases in declared order.
func (c SessionConfig) Sequence() []Phase {
	seq := make([]Phase, 0, len(PhaseOrder))
	for _, p := range PhaseOrder {
		if _, ok := c.Phases[p]; ok {
			seq = append(seq, p)
		}
	}
	return seq
}

// FirstPhase returns the first configured phase, or Complete if none is.
func (c SessionConfig) FirstPhase() Phase {
	if seq := c.Sequence(); len(seq) > 0 {
		return seq[0]
	}
	return PhaseComplete
}

// NextPhase returns the configured phase that follows p, and false when p is
// the last one of the cycle.
func (c SessionConfig) NextPhase(p Phase) (Phase, bool) {
	pos := p.order()
	for _, candidate := range c.Sequence() {
		if candidate.order() > pos {
			return candidate, true
		}
	}
	return PhaseComplete, false
}

// Duration returns the configured duration of p in seconds. Complete and
// unconfigured phases have no duration.
func (c SessionConfig) Duration(p Phase) int {
	if p.IsTerminal() {
		return 0
	}
	return c.Phases[p].DurationSeconds
}

// Warning returns the warning offset of p in seconds.
func (c SessionConfig) Warning(p Phase) int {
	if p.IsTerminal() {
		return 0
	}
	return c.Phases[p].WarningSeconds
}

// Label returns the display label of p, falling back to the phase tag.
func (c SessionConfig) Label(p Phase) string {
	if pc, ok := c.Phases[p]; ok && pc.Label != "" {
		return pc.Label
	}
	return string(p)
}

// PresenterLimit returns the bound on presenters and whether one is set.
func (c SessionConfig) PresenterLimit() (int, bool) {
	if c.TotalPresenters == nil {
		return 0, false
	}
	return *c.TotalPresenters, true
}

// StartPresenter returns the starting presenter index, at least 1.
func (c SessionConfig) StartPresenter() int {
	if c.StartingPresenter < 1 {
		return 1
	}
	return c.StartingPresenter
}

// Clone returns a deep copy so callers can keep editing their own value.
func (c SessionConfig) Clone() SessionConfig {
	out := c
	out.Phases = make(map[Phase]PhaseConfig, len(c.Phases))
	for p, pc := range c.Phases {
		out.Phases[p] = pc
	}
	if c.TotalPresenters != nil {
		total := *c.TotalPresenters
		out.TotalPresenters = &total
	}
	return out
}

// TimerState is the mutable progress of a session.
type TimerState struct {
	CurrentPhase   Phase `json:"currentPhase"`
	TimeLeft       int   `json:"timeLeft"`
	IsRunning      bool  `json:"isRunning"`
	IsPaused       bool  `json:"isPaused"`
	PresenterIndex int   `json:"presenterIndex"`
}

// Idle reports whether the state is neither running nor paused.
func (s TimerState) Idle() bool {
	return !s.IsRunning && !s.IsPaused
}

// Snapshot is the published, read-only view of a session.
type Snapshot struct {
	SessionID string `json:"sessionId"`
	Version   uint64 `json:"version"`
	TimerState
	TotalPresenters *int      `json:"totalPresenters,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
