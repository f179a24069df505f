package gateway

import (
	"context"
	"net/http"

	"github.com/mcdev12/defensetimer/go/internal/session/display"
	"github.com/rs/zerolog/log"
)

// Service is the state broadcaster: it fans hub snapshots out to WebSocket
// displays and serves the latest state over HTTP
type Service struct {
	hub               *Hub
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	subscriberBuffer  int
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	// SubscriberBuffer is the hub subscription depth of the broadcaster
	SubscriberBuffer int
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		SubscriberBuffer: 8,
	}
}

// NewService creates a new gateway service reading from hub
func NewService(config Config, hub *Hub) *Service {
	connectionManager := NewConnectionManager(config.ConnectionConfig, hub.Latest)

	return &Service{
		hub:               hub,
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager),
		stateHandler:      NewStateHandler(hub, config.ConnectionConfig.Thresholds),
		subscriberBuffer:  config.SubscriberBuffer,
	}
}

// WithThresholds returns a config using the given display thresholds
func (c Config) WithThresholds(t display.Thresholds) Config {
	c.ConnectionConfig.Thresholds = t
	return c
}

// Start forwards hub snapshots to the connected displays until ctx is done
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting session gateway service")

	go s.connectionManager.Start(ctx)

	updates, cancel := s.hub.Subscribe(s.subscriberBuffer)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("session gateway service shutting down")
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			s.connectionManager.Broadcast(snap)
		}
	}
}

// RegisterRoutes registers the WebSocket and state HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("session gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() map[string]interface{} {
	stats := s.connectionManager.GetConnectionStats()
	return map[string]interface{}{
		"service":           "session_gateway",
		"status":            "running",
		"total_connections": stats.TotalConnections,
		"hub_subscribers":   s.hub.Subscribers(),
	}
}

// ConnectionStats returns statistics about the connected displays
func (s *Service) ConnectionStats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}
