// Package display holds the presentation logic of the passive live view. It
// only sees published snapshots, so its thresholds come from its own settings
// rather than from the engine's configuration.
package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mcdev12/defensetimer/go/internal/models"
)

// DefaultWarningSeconds is used when the display has no warning setting.
const DefaultWarningSeconds = 60

const defaultCriticalSeconds = 10

// Level is the visual urgency of the remaining time.
type Level string

const (
	LevelNormal   Level = "normal"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
	LevelComplete Level = "complete"
)

// Thresholds are the display's own urgency settings.
type Thresholds struct {
	WarningSeconds int `json:"warningSeconds"`
}

// Warning returns the warning threshold, falling back to the default.
func (t Thresholds) Warning() int {
	if t.WarningSeconds <= 0 {
		return DefaultWarningSeconds
	}
	return t.WarningSeconds
}

// Critical returns the critical threshold. Short warnings lower it so the
// warning level stays visible before critical takes over.
func (t Thresholds) Critical() int {
	if w := t.Warning(); w <= defaultCriticalSeconds {
		return w / 2
	}
	return defaultCriticalSeconds
}

// LevelFor classifies the remaining time of a phase.
func (t Thresholds) LevelFor(phase models.Phase, timeLeft int) Level {
	switch {
	case phase.IsTerminal():
		return LevelComplete
	case timeLeft <= t.Critical():
		return LevelCritical
	case timeLeft <= t.Warning():
		return LevelWarning
	default:
		return LevelNormal
	}
}

// View is a snapshot rendered for the live display.
type View struct {
	models.Snapshot
	Clock string `json:"clock"`
	Level Level  `json:"level"`
	Title string `json:"title"`
}

// Render annotates snap with the display's own classification.
func Render(snap models.Snapshot, t Thresholds) View {
	return View{
		Snapshot: snap,
		Clock:    FormatClock(snap.TimeLeft),
		Level:    t.LevelFor(snap.CurrentPhase, snap.TimeLeft),
		Title:    Title(snap),
	}
}

// Title is the headline shown above the clock.
func Title(snap models.Snapshot) string {
	var phase string
	switch snap.CurrentPhase {
	case models.PhaseSetup:
		phase = "Setup"
	case models.PhasePresentation:
		phase = "Presentation"
	case models.PhaseQAndA:
		phase = "Q&A"
	case models.PhaseComplete:
		return "Session complete"
	default:
		phase = string(snap.CurrentPhase)
	}
	if snap.TotalPresenters != nil {
		return fmt.Sprintf("Presenter %d of %d · %s", snap.PresenterIndex, *snap.TotalPresenters, phase)
	}
	return fmt.Sprintf("Presenter %d · %s", snap.PresenterIndex, phase)
}

// FormatClock renders seconds as MM:SS, or H:MM:SS from one hour on.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// MinutesToSeconds parses a possibly fractional number of minutes. Input that
// is not a number yields 0.
func MinutesToSeconds(minutes string) int {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(minutes), 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return int(parsed * 60)
}
