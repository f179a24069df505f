package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/mcdev12/defensetimer/go/internal/session/audio"
	"github.com/mcdev12/defensetimer/go/internal/session/display"
	"github.com/mcdev12/defensetimer/go/internal/session/engine"
	"github.com/mcdev12/defensetimer/go/internal/session/events"
	"github.com/mcdev12/defensetimer/go/internal/session/gateway"
	"github.com/mcdev12/defensetimer/go/internal/session/relay"
	"github.com/mcdev12/defensetimer/go/internal/session/rpc"
	"github.com/mcdev12/defensetimer/go/internal/session/store"
	storedb "github.com/mcdev12/defensetimer/go/internal/session/store/db"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	eventQueueSize   = 256
	mirrorBufferSize = 8
)

type Services struct {
	Engine  *engine.Engine
	Hub     *gateway.Hub
	Session *rpc.Service
	Gateway *gateway.Service

	db      *sql.DB
	presets rpc.PresetStore
	player  audio.Player
	sinks   []*events.AsyncSink
	nc      *nats.Conn
	mirror  *relay.KVPublisher
	wg      sync.WaitGroup
}

func setupServices(ctx context.Context, cfg models.SessionConfig, database *sql.DB) (*Services, error) {
	// Wire up dependency injection chain
	// Collaborators → Engine → Service layer
	s := &Services{
		db:     database,
		Hub:    gateway.NewHub(),
		player: audio.New(getEnv("AUDIO_BACKEND", "terminal")),
	}

	opts := []engine.Option{
		engine.WithCuePlayer(s.player),
		engine.WithPublisher(s.Hub),
	}
	if id := getEnv("SESSION_ID", ""); id != "" {
		opts = append(opts, engine.WithSessionID(id))
	}

	// Presets and event log
	if database != nil {
		repo := store.NewRepository(storedb.New(database))
		s.presets = repo
		opts = append(opts, engine.WithEventSink(s.addSink("postgres", repo)))
	}

	// State mirror and event stream
	if getEnvAsBool("NATS_ENABLED", false) {
		if err := s.setupRelay(ctx, &opts); err != nil {
			return nil, err
		}
	}

	eng, err := engine.New(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session engine: %w", err)
	}
	s.Engine = eng
	s.Hub.Publish(eng.Snapshot())

	thresholds := display.Thresholds{
		WarningSeconds: getEnvAsInt("DISPLAY_WARNING_SECONDS", display.DefaultWarningSeconds),
	}
	s.Gateway = gateway.NewService(gateway.DefaultConfig().WithThresholds(thresholds), s.Hub)
	s.Session = rpc.NewService(eng, s.presets)

	return s, nil
}

func (s *Services) setupRelay(ctx context.Context, opts *[]engine.Option) error {
	relayCfg := relay.DefaultConfig()
	relayCfg.URL = getEnv("NATS_URL", relayCfg.URL)
	relayCfg.Bucket = getEnv("NATS_BUCKET", relayCfg.Bucket)
	relayCfg.Key = getEnv("NATS_KEY", relayCfg.Key)

	nc, js, err := relay.Connect(relayCfg)
	if err != nil {
		return err
	}
	s.nc = nc

	kv, err := relay.EnsureBucket(ctx, js, relayCfg)
	if err != nil {
		nc.Close()
		return err
	}
	s.mirror = relay.NewKVPublisher(kv, relayCfg.Key)

	publisher, err := relay.NewEventPublisher(ctx, js, relayCfg)
	if err != nil {
		nc.Close()
		return err
	}
	*opts = append(*opts, engine.WithEventSink(s.addSink("nats", publisher)))
	return nil
}

func (s *Services) addSink(name string, handler events.Handler) *events.AsyncSink {
	sink := events.NewAsyncSink(name, eventQueueSize, handler)
	s.sinks = append(s.sinks, sink)
	return sink
}

// Start launches the background workers
func (s *Services) Start(ctx context.Context) {
	for _, sink := range s.sinks {
		s.wg.Add(1)
		go func(sink *events.AsyncSink) {
			defer s.wg.Done()
			sink.Run(ctx)
		}(sink)
	}

	if s.mirror != nil {
		updates, cancel := s.Hub.Subscribe(mirrorBufferSize)
		go func() {
			defer cancel()
			s.mirror.Run(ctx, updates)
		}()
	}

	go func() {
		if err := s.Gateway.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()
}

// Close stops the engine and flushes queued events
func (s *Services) Close() {
	s.Engine.Close()
	for _, sink := range s.sinks {
		sink.Close()
	}
	s.wg.Wait()

	if c, ok := s.player.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close audio device")
		}
	}
	if s.nc != nil {
		if err := s.nc.Drain(); err != nil {
			log.Warn().Err(err).Msg("failed to drain NATS connection")
		}
	}
}

func (s *Services) applyPreset(ctx context.Context, name string) error {
	if s.presets == nil {
		return errors.New("presets require DB_ENABLED=true")
	}
	cfg, _, err := s.presets.GetPreset(ctx, name)
	if err != nil {
		return err
	}
	if _, err := s.Engine.UpdateConfig(cfg); err != nil {
		return err
	}
	log.Info().Str("preset", name).Msg("applied preset")
	return nil
}

func (s *Services) healthChecker() *HealthChecker {
	var db pinger
	if s.db != nil {
		db = s.db
	}
	var nc natsStatus
	if s.nc != nil {
		nc = s.nc
	}
	displays := func() int {
		return s.Gateway.ConnectionStats().TotalConnections
	}
	return NewHealthChecker(s.Engine.Snapshot, displays, db, nc)
}
