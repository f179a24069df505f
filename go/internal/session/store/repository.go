// Package store persists named session presets and the session event log in
// Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/mcdev12/defensetimer/go/internal/session/events"
	"github.com/mcdev12/defensetimer/go/internal/session/rpc"
	"github.com/mcdev12/defensetimer/go/internal/session/store/db"
	"github.com/mcdev12/defensetimer/go/internal/sqlutil"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	UpsertPreset(ctx context.Context, arg db.UpsertPresetParams) (db.SessionPreset, error)
	GetPreset(ctx context.Context, name string) (db.SessionPreset, error)
	ListPresets(ctx context.Context) ([]db.SessionPreset, error)
	InsertEvent(ctx context.Context, arg db.InsertEventParams) error
	ListEventsBySession(ctx context.Context, arg db.ListEventsBySessionParams) ([]db.SessionEvent, error)
}

// Repository implements preset and event log data access
type Repository struct {
	queries Querier
}

var (
	_ rpc.PresetStore = (*Repository)(nil)
	_ events.Handler  = (*Repository)(nil)
)

// NewRepository creates a new session store repository
func NewRepository(querier Querier) *Repository {
	return &Repository{
		queries: querier,
	}
}

// Migrate creates the session tables in a single transaction
func Migrate(ctx context.Context, database *sql.DB) error {
	err := sqlutil.Run(ctx, database, func(tx *sql.Tx) *db.Queries { return db.New(tx) }, func(q *db.Queries) error {
		return q.CreateSchema(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to migrate session schema: %w", err)
	}
	return nil
}

// SavePreset stores cfg under name, replacing any existing preset
func (r *Repository) SavePreset(ctx context.Context, name string, cfg models.SessionConfig) (time.Time, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to encode preset %q: %w", name, err)
	}

	row, err := r.queries.UpsertPreset(ctx, db.UpsertPresetParams{
		Name:   name,
		Config: raw,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to save preset %q: %w", name, err)
	}
	return row.UpdatedAt.UTC(), nil
}

// GetPreset returns the preset stored under name, or rpc.ErrPresetNotFound
func (r *Repository) GetPreset(ctx context.Context, name string) (models.SessionConfig, time.Time, error) {
	row, err := r.queries.GetPreset(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SessionConfig{}, time.Time{}, rpc.ErrPresetNotFound
	}
	if err != nil {
		return models.SessionConfig{}, time.Time{}, fmt.Errorf("failed to get preset %q: %w", name, err)
	}

	p, err := r.dbPresetToModel(row)
	if err != nil {
		return models.SessionConfig{}, time.Time{}, err
	}
	return p.Config, p.UpdatedAt, nil
}

// ListPresets returns all presets ordered by name
func (r *Repository) ListPresets(ctx context.Context) ([]rpc.Preset, error) {
	rows, err := r.queries.ListPresets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}

	presets := make([]rpc.Preset, 0, len(rows))
	for _, row := range rows {
		p, err := r.dbPresetToModel(row)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	return presets, nil
}

// Handle appends e to the session event log. Replays of the same event ID
// are ignored.
func (r *Repository) Handle(ctx context.Context, e events.Event) error {
	err := r.queries.InsertEvent(ctx, db.InsertEventParams{
		ID:        e.ID,
		SessionID: e.SessionID,
		EventType: string(e.Type),
		Payload:   sqlutil.ToNullRawMessage(e.Payload),
		CreatedAt: e.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to append %s event: %w", e.Type, err)
	}
	return nil
}

// ListEvents returns up to limit events of a session, oldest first
func (r *Repository) ListEvents(ctx context.Context, sessionID string, limit int) ([]events.Event, error) {
	rows, err := r.queries.ListEventsBySession(ctx, db.ListEventsBySessionParams{
		SessionID: sessionID,
		Limit:     sqlutil.ToLimit(limit, defaultEventLimit, maxEventLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	out := make([]events.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, events.Event{
			ID:        row.ID,
			SessionID: row.SessionID,
			Type:      events.Type(row.EventType),
			Timestamp: row.CreatedAt.UTC(),
			Payload:   sqlutil.FromNullRawMessage(row.Payload),
		})
	}
	return out, nil
}

// dbPresetToModel converts a database preset to the service model
func (r *Repository) dbPresetToModel(row db.SessionPreset) (rpc.Preset, error) {
	var cfg models.SessionConfig
	if err := json.Unmarshal(row.Config, &cfg); err != nil {
		return rpc.Preset{}, fmt.Errorf("failed to decode preset %q: %w", row.Name, err)
	}
	return rpc.Preset{
		Name:      row.Name,
		Config:    cfg,
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}
