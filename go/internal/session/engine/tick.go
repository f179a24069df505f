package engine

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/defensetimer/go/internal/session/cue"
	"github.com/rs/zerolog/log"
)

const tickInterval = time.Second

// pendingTick is the single scheduled tick of an engine.
type pendingTick struct {
	timer clockwork.Timer
	stop  chan struct{}
}

// armLocked schedules the next tick, replacing any pending one. The caller
// holds e.mu.
func (e *Engine) armLocked() {
	e.cancelLocked()

	e.gen++
	gen := e.gen
	timer := e.clock.NewTimer(tickInterval)
	stop := make(chan struct{})
	e.pending = &pendingTick{timer: timer, stop: stop}

	go func(t clockwork.Timer) {
		select {
		case <-t.Chan():
			e.onTick(gen)
		case <-stop:
		}
	}(timer)
}

// cancelLocked stops the pending tick, if any. The caller holds e.mu.
func (e *Engine) cancelLocked() {
	if e.pending == nil {
		return
	}
	stopAndDrainTimer(e.pending.timer)
	close(e.pending.stop)
	e.pending = nil
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

// onTick runs one scheduling pass. Fires from a cancelled or replaced timer
// carry an old generation and are ignored.
func (e *Engine) onTick(gen uint64) {
	defer e.passes.Add(1)

	e.mu.Lock()
	if e.closed || gen != e.gen || !e.state.IsRunning {
		e.mu.Unlock()
		log.Debug().Str("session_id", e.sessionID).Uint64("gen", gen).Msg("ignoring stale tick")
		return
	}
	e.pending = nil

	var b batch
	if e.state.TimeLeft > 0 {
		e.state.TimeLeft--
		b.cues = append(b.cues, cue.OnTick(e.cfg, e.state.CurrentPhase, e.state.TimeLeft)...)
	}
	if e.state.TimeLeft == 0 {
		e.transitionLocked(&b, cue.ReasonExpired)
	}
	if e.state.IsRunning {
		e.armLocked()
	}

	e.commitAndNotify(&b)
}
