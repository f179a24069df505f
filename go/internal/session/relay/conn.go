// Package relay mirrors session state and events over NATS JetStream so that
// displays in other processes can follow a session.
package relay

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// Config holds the NATS settings of the relay
type Config struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration

	// Bucket and Key locate the mirrored snapshot
	Bucket string
	Key    string

	StreamName      string
	SubjectPrefix   string
	MaxAge          time.Duration // How long to keep events
	DuplicateWindow time.Duration // Window for duplicate detection
}

// DefaultConfig returns default relay configuration
func DefaultConfig() Config {
	return Config{
		URL:             nats.DefaultURL,
		MaxReconnects:   -1, // Infinite
		ReconnectWait:   2 * time.Second,
		Bucket:          "defense-timer",
		Key:             "defense-timer-state",
		StreamName:      "SESSION_EVENTS",
		SubjectPrefix:   "session.events",
		MaxAge:          24 * time.Hour,
		DuplicateWindow: 2 * time.Minute,
	}
}

// Connect creates a NATS connection with JetStream
func Connect(cfg Config) (*nats.Conn, jetstream.JetStream, error) {
	opts := []nats.Option{
		nats.Name("defense-timer"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create JetStream context: %w", err)
	}

	return nc, js, nil
}
