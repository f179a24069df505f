package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mcdev12/defensetimer/go/internal/models"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid session configuration")

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate checks cfg before a session is started with it.
func Validate(cfg models.SessionConfig) error {
	var problems []string

	for phase := range cfg.Phases {
		if !phase.Valid() || phase.IsTerminal() {
			problems = append(problems, fmt.Sprintf("unknown phase %q", phase))
		}
	}

	seq := cfg.Sequence()
	if len(seq) == 0 {
		problems = append(problems, "no phases configured")
	}
	for _, phase := range seq {
		pc := cfg.Phases[phase]
		label := cfg.Label(phase)
		switch {
		case pc.DurationSeconds <= 0:
			problems = append(problems, fmt.Sprintf("%s: duration must be positive", label))
		case pc.WarningSeconds < 0:
			problems = append(problems, fmt.Sprintf("%s: warning must not be negative", label))
		case pc.WarningSeconds > 0 && pc.WarningSeconds >= pc.DurationSeconds:
			problems = append(problems, fmt.Sprintf("%s: warning (%ds) must be less than duration (%ds)", label, pc.WarningSeconds, pc.DurationSeconds))
		}
	}

	if !cfg.TickMode.Valid() {
		problems = append(problems, fmt.Sprintf("unknown tick mode %q", cfg.TickMode))
	}

	if cfg.StartingPresenter < 0 {
		problems = append(problems, "starting presenter must be at least 1")
	}
	if total, bounded := cfg.PresenterLimit(); bounded {
		if total <= 0 {
			problems = append(problems, "total presenters must be positive")
		} else if cfg.StartPresenter() > total {
			problems = append(problems, fmt.Sprintf("starting presenter %d exceeds total presenters %d", cfg.StartPresenter(), total))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
