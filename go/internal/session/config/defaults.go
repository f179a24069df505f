package config

import (
	"github.com/mcdev12/defensetimer/go/internal/models"
)

// Default returns the configuration used when nothing else is supplied.
func Default() models.SessionConfig {
	return models.SessionConfig{
		Phases: map[models.Phase]models.PhaseConfig{
			models.PhaseSetup: {
				DurationSeconds: 5 * 60,
				WarningSeconds:  60,
				Label:           "Setup",
			},
			models.PhasePresentation: {
				DurationSeconds: 20 * 60,
				WarningSeconds:  5 * 60,
				Label:           "Presentation",
			},
			models.PhaseQAndA: {
				DurationSeconds: 15 * 60,
				WarningSeconds:  2 * 60,
				Label:           "Q&A",
			},
		},
		AutoAdvance:       true,
		SoundEnabled:      true,
		TickMode:          models.TickModeLastTen,
		StartingPresenter: 1,
	}
}
