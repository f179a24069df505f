package engine

import (
	"github.com/mcdev12/defensetimer/go/internal/models"
)

// Transition is the outcome of leaving a phase.
type Transition struct {
	State models.TimerState
	// Wrapped is set when the presenter cycle restarted with the next presenter.
	Wrapped bool
	// Completed is set when the session reached the terminal phase.
	Completed bool
}

// Next computes the state that follows the end of current for presenterIndex.
// It is pure: every phase change except restart and the explicit presenter
// override goes through it.
func Next(current models.Phase, presenterIndex int, cfg models.SessionConfig) Transition {
	if current.IsTerminal() {
		return Transition{State: completeState(presenterIndex), Completed: true}
	}

	if next, ok := cfg.NextPhase(current); ok {
		return Transition{State: enterPhase(next, presenterIndex, cfg)}
	}

	if total, bounded := cfg.PresenterLimit(); bounded && presenterIndex >= total {
		return Transition{State: completeState(presenterIndex), Completed: true}
	}

	return Transition{
		State:   enterPhase(cfg.FirstPhase(), presenterIndex+1, cfg),
		Wrapped: true,
	}
}

// enterPhase returns the state of a freshly entered phase with the run/pause
// flags derived from auto-advance.
func enterPhase(phase models.Phase, presenterIndex int, cfg models.SessionConfig) models.TimerState {
	return models.TimerState{
		CurrentPhase:   phase,
		TimeLeft:       cfg.Duration(phase),
		IsRunning:      cfg.AutoAdvance,
		IsPaused:       !cfg.AutoAdvance,
		PresenterIndex: presenterIndex,
	}
}

func completeState(presenterIndex int) models.TimerState {
	return models.TimerState{
		CurrentPhase:   models.PhaseComplete,
		PresenterIndex: presenterIndex,
	}
}

// initialState is the idle state at the start of a session.
func initialState(cfg models.SessionConfig) models.TimerState {
	first := cfg.FirstPhase()
	return models.TimerState{
		CurrentPhase:   first,
		TimeLeft:       cfg.Duration(first),
		PresenterIndex: cfg.StartPresenter(),
	}
}
