package engine

import (
	"testing"

	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	bounded := exampleConfig()
	bounded.Phases[models.PhaseSetup] = models.PhaseConfig{DurationSeconds: 45}

	manual := bounded.Clone()
	manual.AutoAdvance = false

	unbounded := bounded.Clone()
	unbounded.TotalPresenters = nil

	cases := []struct {
		name      string
		current   models.Phase
		presenter int
		cfg       models.SessionConfig
		want      Transition
	}{
		{
			name:      "setup to presentation",
			current:   models.PhaseSetup,
			presenter: 1,
			cfg:       bounded,
			want: Transition{State: models.TimerState{
				CurrentPhase: models.PhasePresentation, TimeLeft: 120, IsRunning: true, PresenterIndex: 1,
			}},
		},
		{
			name:      "manual advance leaves the next phase paused",
			current:   models.PhasePresentation,
			presenter: 1,
			cfg:       manual,
			want: Transition{State: models.TimerState{
				CurrentPhase: models.PhaseQAndA, TimeLeft: 60, IsPaused: true, PresenterIndex: 1,
			}},
		},
		{
			name:      "last phase wraps to the first for the next presenter",
			current:   models.PhaseQAndA,
			presenter: 1,
			cfg:       bounded,
			want: Transition{
				State: models.TimerState{
					CurrentPhase: models.PhaseSetup, TimeLeft: 45, IsRunning: true, PresenterIndex: 2,
				},
				Wrapped: true,
			},
		},
		{
			name:      "last presenter completes",
			current:   models.PhaseQAndA,
			presenter: 2,
			cfg:       bounded,
			want: Transition{
				State:     models.TimerState{CurrentPhase: models.PhaseComplete, PresenterIndex: 2},
				Completed: true,
			},
		},
		{
			name:      "presenter beyond the limit completes",
			current:   models.PhaseQAndA,
			presenter: 3,
			cfg:       bounded,
			want: Transition{
				State:     models.TimerState{CurrentPhase: models.PhaseComplete, PresenterIndex: 3},
				Completed: true,
			},
		},
		{
			name:      "unbounded always wraps",
			current:   models.PhaseQAndA,
			presenter: 99,
			cfg:       unbounded,
			want: Transition{
				State: models.TimerState{
					CurrentPhase: models.PhaseSetup, TimeLeft: 45, IsRunning: true, PresenterIndex: 100,
				},
				Wrapped: true,
			},
		},
		{
			name:      "complete stays complete",
			current:   models.PhaseComplete,
			presenter: 2,
			cfg:       bounded,
			want: Transition{
				State:     models.TimerState{CurrentPhase: models.PhaseComplete, PresenterIndex: 2},
				Completed: true,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Next(tc.current, tc.presenter, tc.cfg))
		})
	}
}

func TestNext_SkipsUnconfiguredPhases(t *testing.T) {
	cfg := exampleConfig()
	delete(cfg.Phases, models.PhaseQAndA)

	got := Next(models.PhasePresentation, 1, cfg)
	assert.True(t, got.Wrapped)
	assert.Equal(t, models.PhasePresentation, got.State.CurrentPhase)
	assert.Equal(t, 2, got.State.PresenterIndex)
}
