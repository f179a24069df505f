package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	setupLogging(getEnv("LOG_LEVEL", "info"))

	configPath := getEnv("CONFIG_PATH", "defense-timer.yaml")
	cfg, err := loadSessionConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("invalid session configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := setupDatabase(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up database")
	}
	if database != nil {
		defer database.Close()
	}

	services, err := setupServices(ctx, cfg, database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}

	if preset := getEnv("PRESET", ""); preset != "" {
		if err := services.applyPreset(ctx, preset); err != nil {
			log.Fatal().Err(err).Str("preset", preset).Msg("failed to apply preset")
		}
	}

	services.Start(ctx)

	server := setupServer(services)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	services.Close()
	cancel()

	log.Info().Msg("defense timer shutdown complete")
}
