package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mcdev12/defensetimer/go/internal/models"
	"gopkg.in/yaml.v3"
)

type yamlPhase struct {
	Duration string `yaml:"duration"`
	Warning  string `yaml:"warning,omitempty"`
	Label    string `yaml:"label,omitempty"`
}

type yamlSession struct {
	AutoAdvance       *bool                `yaml:"auto_advance,omitempty"`
	SoundEnabled      *bool                `yaml:"sound_enabled,omitempty"`
	TickMode          string               `yaml:"tick_mode,omitempty"`
	TotalPresenters   *int                 `yaml:"total_presenters,omitempty"`
	StartingPresenter int                  `yaml:"starting_presenter,omitempty"`
	Phases            map[string]yamlPhase `yaml:"phases"`
}

var phaseKeys = map[string]models.Phase{
	"setup":        models.PhaseSetup,
	"presentation": models.PhasePresentation,
	"q_and_a":      models.PhaseQAndA,
	"qa":           models.PhaseQAndA,
}

// ParsePhase resolves a configurable phase by its file key ("setup",
// "presentation", "q_and_a" or "qa"), case-insensitively.
func ParsePhase(key string) (models.Phase, bool) {
	phase, ok := phaseKeys[strings.ToLower(strings.TrimSpace(key))]
	return phase, ok
}

// Load reads a session configuration from a YAML file. Settings that are not
// present in the file keep their default values; a phases block replaces the
// default phase set entirely.
func Load(path string) (models.SessionConfig, error) {
	rawData, err := os.ReadFile(path)
	if err != nil {
		return models.SessionConfig{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(rawData)
}

// Parse decodes YAML configuration data over the defaults.
func Parse(rawData []byte) (models.SessionConfig, error) {
	var fileData yamlSession
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return models.SessionConfig{}, fmt.Errorf("parse config yaml: %w", err)
	}

	cfg := Default()
	if err := applyYamlSession(&cfg, fileData); err != nil {
		return models.SessionConfig{}, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating the directory if needed.
func Save(path string, cfg models.SessionConfig) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Marshal encodes cfg in the file format understood by Parse.
func Marshal(cfg models.SessionConfig) ([]byte, error) {
	autoAdvance := cfg.AutoAdvance
	soundEnabled := cfg.SoundEnabled
	fileData := yamlSession{
		AutoAdvance:       &autoAdvance,
		SoundEnabled:      &soundEnabled,
		TickMode:          string(cfg.TickMode),
		TotalPresenters:   cfg.TotalPresenters,
		StartingPresenter: cfg.StartingPresenter,
		Phases:            make(map[string]yamlPhase, len(cfg.Phases)),
	}
	for _, phase := range cfg.Sequence() {
		pc := cfg.Phases[phase]
		entry := yamlPhase{
			Duration: formatSeconds(pc.DurationSeconds),
			Label:    pc.Label,
		}
		if pc.WarningSeconds > 0 {
			entry.Warning = formatSeconds(pc.WarningSeconds)
		}
		fileData.Phases[strings.ToLower(string(phase))] = entry
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return nil, fmt.Errorf("marshal config yaml: %w", err)
	}
	return serialized, nil
}

func applyYamlSession(cfg *models.SessionConfig, fileData yamlSession) error {
	if fileData.AutoAdvance != nil {
		cfg.AutoAdvance = *fileData.AutoAdvance
	}
	if fileData.SoundEnabled != nil {
		cfg.SoundEnabled = *fileData.SoundEnabled
	}
	if fileData.TickMode != "" {
		cfg.TickMode = models.TickMode(strings.ToUpper(fileData.TickMode))
	}
	if fileData.TotalPresenters != nil {
		total := *fileData.TotalPresenters
		cfg.TotalPresenters = &total
	}
	if fileData.StartingPresenter != 0 {
		cfg.StartingPresenter = fileData.StartingPresenter
	}

	if len(fileData.Phases) == 0 {
		return nil
	}

	phases := make(map[models.Phase]models.PhaseConfig, len(fileData.Phases))
	for key, entry := range fileData.Phases {
		phase, ok := ParsePhase(key)
		if !ok {
			return fmt.Errorf("%w: unknown phase %q", ErrInvalidConfig, key)
		}
		duration, err := parseSeconds(entry.Duration)
		if err != nil {
			return fmt.Errorf("%w: %s duration: %v", ErrInvalidConfig, key, err)
		}
		warning, err := parseSeconds(entry.Warning)
		if err != nil {
			return fmt.Errorf("%w: %s warning: %v", ErrInvalidConfig, key, err)
		}
		label := entry.Label
		if label == "" {
			label = Default().Label(phase)
		}
		phases[phase] = models.PhaseConfig{
			DurationSeconds: duration,
			WarningSeconds:  warning,
			Label:           label,
		}
	}
	cfg.Phases = phases
	return nil
}

// parseSeconds accepts Go duration strings ("20m", "1m30s") or a bare number
// of seconds.
func parseSeconds(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		d, err = time.ParseDuration(value + "s")
		if err != nil {
			return 0, errors.New("not a duration: " + value)
		}
	}
	return int(d / time.Second), nil
}

func formatSeconds(seconds int) string {
	d := time.Duration(seconds) * time.Second
	s := d.String()
	// time.Duration prints 20m0s; trim the zero tails for readability.
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return s
}
