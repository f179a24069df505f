package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/mcdev12/defensetimer/go/internal/dbconfig"
	"github.com/mcdev12/defensetimer/go/internal/session/store"
	"github.com/rs/zerolog/log"
)

// setupDatabase connects to Postgres and applies the session schema. It
// returns a nil database when persistence is disabled.
func setupDatabase(ctx context.Context) (*sql.DB, error) {
	dbCfg := dbconfig.NewConfigFromEnv()
	if !dbCfg.Enabled {
		log.Info().Msg("database disabled, presets and event log are not persisted")
		return nil, nil
	}

	database, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := database.PingContext(pingCtx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := store.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, err
	}

	log.Info().Str("database", dbCfg.String()).Msg("connected to database")
	return database, nil
}
