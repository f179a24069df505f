// Package cue decides which audible notifications a session should request.
// Rendering the sound is left to a Player.
package cue

import (
	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Kind is an audible notification type.
type Kind string

const (
	KindPhaseComplete Kind = "phase_complete"
	KindWarning       Kind = "warning"
	KindTick          Kind = "tick"
)

// lastTenWindow is the inclusive upper bound of the LAST_TEN tick window.
const lastTenWindow = 10

// Player renders cues. Calls must not block and must tolerate being invoked
// back-to-back or while the underlying device is unavailable.
type Player interface {
	PlayPhaseCompleteCue()
	PlayWarningCue()
	PlayTickCue()
}

// Reason explains why a phase transition happened.
type Reason string

const (
	ReasonExpired Reason = "expired"
	ReasonSkipped Reason = "skipped"
)

// OnTick returns the cues requested by the tick that produced timeLeft in phase.
func OnTick(cfg models.SessionConfig, phase models.Phase, timeLeft int) []Kind {
	if !cfg.SoundEnabled || phase.IsTerminal() {
		return nil
	}

	var kinds []Kind
	if warning := cfg.Warning(phase); warning > 0 && timeLeft == warning {
		kinds = append(kinds, KindWarning)
	}

	switch cfg.TickMode {
	case models.TickModeEverySecond:
		kinds = append(kinds, KindTick)
	case models.TickModeLastTen:
		if timeLeft >= 0 && timeLeft <= lastTenWindow {
			kinds = append(kinds, KindTick)
		}
	}
	return kinds
}

// OnTransition returns the cues requested by a sequencer transition. A manual
// skip is silent; natural expiry, including the one that completes the
// session, alerts.
func OnTransition(cfg models.SessionConfig, reason Reason) []Kind {
	if !cfg.SoundEnabled || reason != ReasonExpired {
		return nil
	}
	return []Kind{KindPhaseComplete}
}

// Dispatcher forwards cue requests to a Player.
type Dispatcher struct {
	player Player
}

// NewDispatcher creates a dispatcher; a nil player discards every cue.
func NewDispatcher(player Player) *Dispatcher {
	return &Dispatcher{player: player}
}

// Dispatch plays kinds in order. A failing player never reaches the caller.
func (d *Dispatcher) Dispatch(kinds []Kind) {
	if d == nil || d.player == nil {
		return
	}
	for _, kind := range kinds {
		d.play(kind)
	}
}

func (d *Dispatcher) play(kind Kind) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("cue", string(kind)).Msg("cue player failed")
		}
	}()

	switch kind {
	case KindPhaseComplete:
		d.player.PlayPhaseCompleteCue()
	case KindWarning:
		d.player.PlayWarningCue()
	case KindTick:
		d.player.PlayTickCue()
	}
}

// Recorder is a Player that remembers the cues it was asked to play.
type Recorder struct {
	Played []Kind
}

func (r *Recorder) PlayPhaseCompleteCue() { r.Played = append(r.Played, KindPhaseComplete) }
func (r *Recorder) PlayWarningCue()       { r.Played = append(r.Played, KindWarning) }
func (r *Recorder) PlayTickCue()          { r.Played = append(r.Played, KindTick) }

// Count returns how many times kind was played.
func (r *Recorder) Count(kind Kind) int {
	n := 0
	for _, played := range r.Played {
		if played == kind {
			n++
		}
	}
	return n
}
