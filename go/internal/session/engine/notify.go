package engine

import (
	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/mcdev12/defensetimer/go/internal/session/cue"
	"github.com/mcdev12/defensetimer/go/internal/session/events"
	"github.com/rs/zerolog/log"
)

// batch collects the side effects of one mutation.
type batch struct {
	snapshot models.Snapshot
	cues     []cue.Kind
	events   []events.Event
}

func (e *Engine) emitLocked(b *batch, eventType events.Type, payload any) {
	ev, err := events.New(e.sessionID, eventType, e.clock.Now(), payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to build event")
		return
	}
	b.events = append(b.events, ev)
}

func (e *Engine) snapshotLocked() models.Snapshot {
	snap := models.Snapshot{
		SessionID:  e.sessionID,
		Version:    e.version,
		TimerState: e.state,
		UpdatedAt:  e.updatedAt,
	}
	if total, ok := e.cfg.PresenterLimit(); ok {
		snap.TotalPresenters = &total
	}
	return snap
}

// commitAndNotify bumps the version, releases e.mu and delivers the batch.
// The caller holds e.mu. notifyMu is taken before e.mu is released, so
// batches are delivered in commit order.
func (e *Engine) commitAndNotify(b *batch) models.Snapshot {
	e.version++
	e.updatedAt = e.clock.Now().UTC()
	b.snapshot = e.snapshotLocked()

	e.notifyMu.Lock()
	e.mu.Unlock()
	defer e.notifyMu.Unlock()

	e.publish(b.snapshot)
	e.cues.Dispatch(b.cues)
	for _, ev := range b.events {
		e.record(ev)
	}
	return b.snapshot
}

func (e *Engine) publish(snap models.Snapshot) {
	if e.publisher == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("session_id", e.sessionID).Msg("state publisher failed")
		}
	}()
	e.publisher.Publish(snap)
}

func (e *Engine) record(ev events.Event) {
	for _, sink := range e.sinks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("event_type", string(ev.Type)).Msg("event sink failed")
				}
			}()
			sink.Record(ev)
		}()
	}
}
