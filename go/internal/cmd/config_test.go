package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/mcdev12/defensetimer/go/internal/session/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSessionConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadSessionConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadSessionConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	cfg := config.Default()
	cfg.Phases[models.PhasePresentation] = models.PhaseConfig{DurationSeconds: 600, WarningSeconds: 60, Label: "Talk"}
	require.NoError(t, config.Save(path, cfg))

	got, err := loadSessionConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 600, got.Duration(models.PhasePresentation))
}

func TestLoadSessionConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("phases: [unclosed"), 0o644))

	_, err := loadSessionConfig(path)
	assert.Error(t, err)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TIMER_TEST_INT", "42")
	t.Setenv("TIMER_TEST_BAD_INT", "x")
	t.Setenv("TIMER_TEST_BOOL", "true")

	assert.Equal(t, 42, getEnvAsInt("TIMER_TEST_INT", 1))
	assert.Equal(t, 1, getEnvAsInt("TIMER_TEST_BAD_INT", 1))
	assert.True(t, getEnvAsBool("TIMER_TEST_BOOL", false))
	assert.False(t, getEnvAsBool("TIMER_TEST_UNSET", false))
	assert.Equal(t, "fallback", getEnv("TIMER_TEST_UNSET", "fallback"))
}
