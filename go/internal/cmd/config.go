package main

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/mcdev12/defensetimer/go/internal/session/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// loadSessionConfig reads the YAML session file. A missing file falls back
// to the built-in defaults.
func loadSessionConfig(path string) (models.SessionConfig, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info().Str("path", path).Msg("no session config file, using defaults")
		return config.Default(), nil
	}
	if err != nil {
		return models.SessionConfig{}, err
	}
	if err := config.Validate(cfg); err != nil {
		return models.SessionConfig{}, err
	}
	return cfg, nil
}
