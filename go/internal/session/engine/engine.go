// Package engine owns the progress of one presentation session: the current
// phase, the remaining time, the run/pause flags and the presenter index.
//
// All mutation goes through the command methods and the internal one-second
// tick. Every mutation commits atomically and then, in commit order, publishes
// a snapshot, requests cues and records events. Collaborators are called
// synchronously and must not call back into the engine.
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/mcdev12/defensetimer/go/internal/session/config"
	"github.com/mcdev12/defensetimer/go/internal/session/cue"
	"github.com/mcdev12/defensetimer/go/internal/session/events"
	"github.com/rs/zerolog/log"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// StatePublisher receives every committed snapshot.
type StatePublisher interface {
	Publish(snap models.Snapshot)
}

// EventSink receives every domain event. Record must not block.
type EventSink interface {
	Record(e events.Event)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock driving the tick.
func WithClock(clock Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithCuePlayer sets the audio collaborator.
func WithCuePlayer(player cue.Player) Option {
	return func(e *Engine) { e.cues = cue.NewDispatcher(player) }
}

// WithPublisher sets the snapshot publisher.
func WithPublisher(p StatePublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithEventSink adds an event sink. It may be given more than once.
func WithEventSink(sink EventSink) Option {
	return func(e *Engine) { e.sinks = append(e.sinks, sink) }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(e *Engine) { e.sessionID = id }
}

type Engine struct {
	mu       sync.Mutex
	notifyMu sync.Mutex

	sessionID string
	cfg       models.SessionConfig
	state     models.TimerState
	version   uint64
	updatedAt time.Time
	closed    bool

	clock   Clock
	pending *pendingTick
	gen     uint64
	passes  atomic.Uint64

	cues      *cue.Dispatcher
	publisher StatePublisher
	sinks     []EventSink
}

// New validates cfg and returns an idle engine positioned at the first phase.
func New(cfg models.SessionConfig, opts ...Option) (*Engine, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	e := &Engine{
		sessionID: uuid.New().String(),
		cfg:       cfg.Clone(),
		clock:     clockwork.NewRealClock(),
		cues:      cue.NewDispatcher(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state = initialState(e.cfg)
	e.updatedAt = e.clock.Now().UTC()

	log.Info().
		Str("session_id", e.sessionID).
		Str("phase", string(e.state.CurrentPhase)).
		Int("presenter", e.state.PresenterIndex).
		Msg("session created")
	return e, nil
}

// SessionID returns the id stamped on snapshots and events.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// State returns a consistent copy of the timer state.
func (e *Engine) State() models.TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot returns the latest committed snapshot.
func (e *Engine) Snapshot() models.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Config returns a copy of the active configuration.
func (e *Engine) Config() models.SessionConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Clone()
}

// unchanged releases e.mu and returns the current snapshot without a commit.
func (e *Engine) unchanged(command string) models.Snapshot {
	snap := e.snapshotLocked()
	e.mu.Unlock()
	log.Debug().Str("session_id", e.sessionID).Str("command", command).Msg("command ignored")
	return snap
}

// Start runs the countdown. It is a no-op when already running or complete.
func (e *Engine) Start() models.Snapshot {
	e.mu.Lock()
	if e.closed || e.state.IsRunning || e.state.CurrentPhase.IsTerminal() {
		return e.unchanged("start")
	}

	e.state.IsRunning = true
	e.state.IsPaused = false
	e.armLocked()

	var b batch
	e.emitLocked(&b, events.TypeTimerStarted, e.timerPayloadLocked())
	log.Debug().Str("session_id", e.sessionID).Int("time_left", e.state.TimeLeft).Msg("timer started")
	return e.commitAndNotify(&b)
}

// Pause freezes the countdown. It is a no-op unless running.
func (e *Engine) Pause() models.Snapshot {
	e.mu.Lock()
	if e.closed || !e.state.IsRunning {
		return e.unchanged("pause")
	}

	e.cancelLocked()
	e.state.IsRunning = false
	e.state.IsPaused = true

	var b batch
	e.emitLocked(&b, events.TypeTimerPaused, e.timerPayloadLocked())
	log.Debug().Str("session_id", e.sessionID).Int("time_left", e.state.TimeLeft).Msg("timer paused")
	return e.commitAndNotify(&b)
}

// RestartPhase refills the current phase and leaves the session idle.
func (e *Engine) RestartPhase() models.Snapshot {
	e.mu.Lock()
	if e.closed || e.state.CurrentPhase.IsTerminal() {
		return e.unchanged("restart_phase")
	}

	e.cancelLocked()
	e.state.TimeLeft = e.cfg.Duration(e.state.CurrentPhase)
	e.state.IsRunning = false
	e.state.IsPaused = false

	var b batch
	e.emitLocked(&b, events.TypePhaseRestarted, e.phasePayloadLocked())
	log.Info().Str("session_id", e.sessionID).Str("phase", string(e.state.CurrentPhase)).Msg("phase restarted")
	return e.commitAndNotify(&b)
}

// ResetSession returns to the first phase with the starting presenter, idle.
func (e *Engine) ResetSession() models.Snapshot {
	e.mu.Lock()
	if e.closed {
		return e.unchanged("reset_session")
	}

	e.cancelLocked()
	e.state = initialState(e.cfg)

	var b batch
	e.emitLocked(&b, events.TypeSessionReset, events.SessionResetPayload{
		Phase:          e.state.CurrentPhase,
		PresenterIndex: e.state.PresenterIndex,
	})
	log.Info().Str("session_id", e.sessionID).Msg("session reset")
	return e.commitAndNotify(&b)
}

// SkipPhase ends the current phase as if it expired, without the
// phase-complete cue.
func (e *Engine) SkipPhase() models.Snapshot {
	e.mu.Lock()
	if e.closed || e.state.CurrentPhase.IsTerminal() {
		return e.unchanged("skip_phase")
	}

	e.cancelLocked()
	var b batch
	e.transitionLocked(&b, cue.ReasonSkipped)
	if e.state.IsRunning {
		e.armLocked()
	}
	return e.commitAndNotify(&b)
}

// Advance is SkipPhase.
func (e *Engine) Advance() models.Snapshot {
	return e.SkipPhase()
}

// SetPresenterIndex overrides the presenter index while not running. Values
// below 1 or above a configured presenter limit are ignored.
func (e *Engine) SetPresenterIndex(n int) models.Snapshot {
	e.mu.Lock()
	if e.closed || e.state.IsRunning || n < 1 || n == e.state.PresenterIndex {
		return e.unchanged("set_presenter_index")
	}
	if total, bounded := e.cfg.PresenterLimit(); bounded && n > total {
		return e.unchanged("set_presenter_index")
	}

	from := e.state.PresenterIndex
	e.state.PresenterIndex = n

	var b batch
	e.emitLocked(&b, events.TypePresenterChanged, events.PresenterChangedPayload{
		From:   from,
		To:     n,
		Reason: events.ReasonOverride,
	})
	log.Debug().Str("session_id", e.sessionID).Int("presenter", n).Msg("presenter index set")
	return e.commitAndNotify(&b)
}

// AdvanceToNextPresenter jumps to the first phase for the next presenter,
// regardless of the current phase or the presenter limit. It never cues.
func (e *Engine) AdvanceToNextPresenter() models.Snapshot {
	e.mu.Lock()
	if e.closed {
		return e.unchanged("advance_to_next_presenter")
	}

	e.cancelLocked()
	from := e.state.PresenterIndex
	e.state = enterPhase(e.cfg.FirstPhase(), from+1, e.cfg)
	if e.state.IsRunning {
		e.armLocked()
	}

	var b batch
	e.emitLocked(&b, events.TypePresenterChanged, events.PresenterChangedPayload{
		From:   from,
		To:     e.state.PresenterIndex,
		Reason: events.ReasonManual,
	})
	e.emitLocked(&b, events.TypePhaseStarted, e.phasePayloadLocked())
	log.Info().
		Str("session_id", e.sessionID).
		Int("presenter", e.state.PresenterIndex).
		Msg("advanced to next presenter")
	return e.commitAndNotify(&b)
}

// UpdateConfig replaces the configuration. While idle the current phase is
// resized to its new duration; otherwise the remaining time is clamped to it.
// Invalid configurations are rejected and leave the engine untouched.
func (e *Engine) UpdateConfig(cfg models.SessionConfig) (models.Snapshot, error) {
	if err := config.Validate(cfg); err != nil {
		return e.Snapshot(), err
	}

	e.mu.Lock()
	if e.closed {
		return e.unchanged("update_config"), nil
	}

	e.cfg = cfg.Clone()
	phase := e.state.CurrentPhase
	if !phase.IsTerminal() {
		_, configured := e.cfg.Phases[phase]
		switch {
		case e.state.Idle() && !configured:
			e.state.CurrentPhase = e.cfg.FirstPhase()
			e.state.TimeLeft = e.cfg.Duration(e.state.CurrentPhase)
		case e.state.Idle():
			e.state.TimeLeft = e.cfg.Duration(phase)
		default:
			e.state.TimeLeft = min(e.state.TimeLeft, e.cfg.Duration(phase))
		}
	}

	var b batch
	e.emitLocked(&b, events.TypeConfigUpdated, events.ConfigUpdatedPayload{Config: e.cfg.Clone()})
	log.Info().Str("session_id", e.sessionID).Msg("configuration updated")
	return e.commitAndNotify(&b), nil
}

// Close cancels the pending tick. Every later command is a no-op.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.cancelLocked()
	e.closed = true
	log.Info().Str("session_id", e.sessionID).Msg("session closed")
}

// transitionLocked leaves the current phase through the sequencer.
func (e *Engine) transitionLocked(b *batch, reason cue.Reason) {
	prev := e.state
	next := Next(prev.CurrentPhase, prev.PresenterIndex, e.cfg)
	e.state = next.State
	if !e.state.IsRunning {
		e.cancelLocked()
	}

	e.emitLocked(b, events.TypePhaseEnded, events.PhaseEndedPayload{
		Phase:          prev.CurrentPhase,
		PresenterIndex: prev.PresenterIndex,
		Reason:         string(reason),
		TimeLeft:       prev.TimeLeft,
	})
	b.cues = append(b.cues, cue.OnTransition(e.cfg, reason)...)

	if next.Wrapped {
		e.emitLocked(b, events.TypePresenterChanged, events.PresenterChangedPayload{
			From:   prev.PresenterIndex,
			To:     e.state.PresenterIndex,
			Reason: events.ReasonWrap,
		})
	}

	if next.Completed {
		e.emitLocked(b, events.TypeSessionCompleted, events.SessionCompletedPayload{
			Presenters: e.state.PresenterIndex,
		})
		log.Info().
			Str("session_id", e.sessionID).
			Int("presenters", e.state.PresenterIndex).
			Str("reason", string(reason)).
			Msg("session complete")
		return
	}

	e.emitLocked(b, events.TypePhaseStarted, e.phasePayloadLocked())
	log.Info().
		Str("session_id", e.sessionID).
		Str("from", string(prev.CurrentPhase)).
		Str("to", string(e.state.CurrentPhase)).
		Int("presenter", e.state.PresenterIndex).
		Str("reason", string(reason)).
		Msg("phase transition")
}

func (e *Engine) timerPayloadLocked() events.TimerPayload {
	return events.TimerPayload{
		Phase:          e.state.CurrentPhase,
		TimeLeft:       e.state.TimeLeft,
		PresenterIndex: e.state.PresenterIndex,
	}
}

func (e *Engine) phasePayloadLocked() events.PhaseStartedPayload {
	return events.PhaseStartedPayload{
		Phase:           e.state.CurrentPhase,
		Label:           e.cfg.Label(e.state.CurrentPhase),
		DurationSeconds: e.cfg.Duration(e.state.CurrentPhase),
		PresenterIndex:  e.state.PresenterIndex,
		Running:         e.state.IsRunning,
	}
}
