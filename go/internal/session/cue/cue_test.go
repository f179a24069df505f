package cue

import (
	"testing"

	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/stretchr/testify/assert"
)

func testConfig(mode models.TickMode) models.SessionConfig {
	return models.SessionConfig{
		Phases: map[models.Phase]models.PhaseConfig{
			models.PhasePresentation: {DurationSeconds: 120, WarningSeconds: 30},
			models.PhaseQAndA:        {DurationSeconds: 60},
		},
		SoundEnabled: true,
		TickMode:     mode,
	}
}

func TestOnTick_Warning(t *testing.T) {
	cfg := testConfig(models.TickModeNone)

	assert.Equal(t, []Kind{KindWarning}, OnTick(cfg, models.PhasePresentation, 30))
	assert.Empty(t, OnTick(cfg, models.PhasePresentation, 31))
	assert.Empty(t, OnTick(cfg, models.PhasePresentation, 29))
	// Zero warning disables the cue, even at timeLeft 0.
	assert.Empty(t, OnTick(cfg, models.PhaseQAndA, 0))
}

func TestOnTick_TickModes(t *testing.T) {
	cases := []struct {
		mode     models.TickMode
		timeLeft int
		want     []Kind
	}{
		{models.TickModeNone, 5, nil},
		{models.TickModeEverySecond, 100, []Kind{KindTick}},
		{models.TickModeLastTen, 11, nil},
		{models.TickModeLastTen, 10, []Kind{KindTick}},
		{models.TickModeLastTen, 0, []Kind{KindTick}},
	}

	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			assert.Equal(t, tc.want, OnTick(testConfig(tc.mode), models.PhaseQAndA, tc.timeLeft))
		})
	}
}

func TestOnTick_WarningAndTickTogether(t *testing.T) {
	cfg := testConfig(models.TickModeEverySecond)
	assert.Equal(t, []Kind{KindWarning, KindTick}, OnTick(cfg, models.PhasePresentation, 30))
}

func TestSoundDisabled(t *testing.T) {
	cfg := testConfig(models.TickModeEverySecond)
	cfg.SoundEnabled = false

	assert.Empty(t, OnTick(cfg, models.PhasePresentation, 30))
	assert.Empty(t, OnTransition(cfg, ReasonExpired))
}

func TestOnTransition(t *testing.T) {
	cfg := testConfig(models.TickModeNone)

	assert.Equal(t, []Kind{KindPhaseComplete}, OnTransition(cfg, ReasonExpired))
	assert.Empty(t, OnTransition(cfg, ReasonSkipped))
}

type panickyPlayer struct {
	Recorder
}

func (p *panickyPlayer) PlayWarningCue() { panic("speaker unplugged") }

func TestDispatcher_RecoversPlayerPanics(t *testing.T) {
	player := &panickyPlayer{}
	d := NewDispatcher(player)

	assert.NotPanics(t, func() {
		d.Dispatch([]Kind{KindTick, KindWarning, KindPhaseComplete})
	})
	assert.Equal(t, []Kind{KindTick, KindPhaseComplete}, player.Played)
}

func TestDispatcher_NilPlayer(t *testing.T) {
	assert.NotPanics(t, func() {
		NewDispatcher(nil).Dispatch([]Kind{KindTick})
		var d *Dispatcher
		d.Dispatch([]Kind{KindTick})
	})
}
