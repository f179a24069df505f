package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/defensetimer/go/internal/session/display"
	"github.com/mcdev12/defensetimer/go/internal/session/gateway"
	"github.com/mcdev12/defensetimer/go/internal/session/relay"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Get configuration
	port := getEnv("GATEWAY_PORT", "8081")
	relayCfg := relay.DefaultConfig()
	relayCfg.URL = getEnv("NATS_URL", nats.DefaultURL)
	relayCfg.Bucket = getEnv("NATS_BUCKET", relayCfg.Bucket)
	relayCfg.Key = getEnv("NATS_KEY", relayCfg.Key)

	warning, err := strconv.Atoi(getEnv("DISPLAY_WARNING_SECONDS", strconv.Itoa(display.DefaultWarningSeconds)))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid DISPLAY_WARNING_SECONDS")
	}

	log.Info().
		Str("nats_url", relayCfg.URL).
		Str("bucket", relayCfg.Bucket).
		Str("port", port).
		Msg("starting session display gateway")

	nc, js, err := relay.Connect(relayCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer nc.Close()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, err := relay.EnsureBucket(ctx, js, relayCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open state bucket")
	}

	hub := gateway.NewHub()
	gatewayConfig := gateway.DefaultConfig().WithThresholds(display.Thresholds{WarningSeconds: warning})
	gatewayService := gateway.NewService(gatewayConfig, hub)

	// Setup HTTP server
	mux := http.NewServeMux()

	// Register gateway routes (WebSocket and REST)
	gatewayService.RegisterRoutes(mux)

	// Add health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Add service info
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"service": "session-gateway",
			"stats":   gatewayService.GetStats(),
		})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Mirror the shared state key into the hub
	go func() {
		if err := relay.NewKVWatcher(kv, relayCfg.Key).Watch(ctx, hub.Publish); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("state watcher failed")
		}
	}()

	// Start gateway service (connection manager and broadcaster)
	go func() {
		if err := gatewayService.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	// Start HTTP server
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// Cancel service context to stop the watcher and gateway service
	cancel()

	log.Info().Msg("session display gateway shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
