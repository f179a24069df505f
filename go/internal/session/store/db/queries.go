package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

//go:embed schema.sql
var schema string

// CreateSchema creates the session tables when they do not exist yet
func (q *Queries) CreateSchema(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, schema)
	return err
}

const upsertPreset = `-- name: UpsertPreset :one
INSERT INTO session_presets (name, config, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (name) DO UPDATE
SET config = EXCLUDED.config, updated_at = EXCLUDED.updated_at
RETURNING name, config, updated_at
`

type UpsertPresetParams struct {
	Name   string          `json:"name"`
	Config json.RawMessage `json:"config"`
}

func (q *Queries) UpsertPreset(ctx context.Context, arg UpsertPresetParams) (SessionPreset, error) {
	row := q.db.QueryRowContext(ctx, upsertPreset, arg.Name, arg.Config)
	var i SessionPreset
	err := row.Scan(&i.Name, &i.Config, &i.UpdatedAt)
	return i, err
}

const getPreset = `-- name: GetPreset :one
SELECT name, config, updated_at FROM session_presets
WHERE name = $1
`

func (q *Queries) GetPreset(ctx context.Context, name string) (SessionPreset, error) {
	row := q.db.QueryRowContext(ctx, getPreset, name)
	var i SessionPreset
	err := row.Scan(&i.Name, &i.Config, &i.UpdatedAt)
	return i, err
}

const listPresets = `-- name: ListPresets :many
SELECT name, config, updated_at FROM session_presets
ORDER BY name
`

func (q *Queries) ListPresets(ctx context.Context) ([]SessionPreset, error) {
	rows, err := q.db.QueryContext(ctx, listPresets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SessionPreset
	for rows.Next() {
		var i SessionPreset
		if err := rows.Scan(&i.Name, &i.Config, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertEvent = `-- name: InsertEvent :exec
INSERT INTO session_events (id, session_id, event_type, payload, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING
`

type InsertEventParams struct {
	ID        uuid.UUID             `json:"id"`
	SessionID string                `json:"session_id"`
	EventType string                `json:"event_type"`
	Payload   pqtype.NullRawMessage `json:"payload"`
	CreatedAt time.Time             `json:"created_at"`
}

func (q *Queries) InsertEvent(ctx context.Context, arg InsertEventParams) error {
	_, err := q.db.ExecContext(ctx, insertEvent,
		arg.ID,
		arg.SessionID,
		arg.EventType,
		arg.Payload,
		arg.CreatedAt,
	)
	return err
}

const listEventsBySession = `-- name: ListEventsBySession :many
SELECT id, session_id, event_type, payload, created_at FROM session_events
WHERE session_id = $1
ORDER BY created_at, id
LIMIT $2
`

type ListEventsBySessionParams struct {
	SessionID string `json:"session_id"`
	Limit     int32  `json:"limit"`
}

func (q *Queries) ListEventsBySession(ctx context.Context, arg ListEventsBySessionParams) ([]SessionEvent, error) {
	rows, err := q.db.QueryContext(ctx, listEventsBySession, arg.SessionID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SessionEvent
	for rows.Next() {
		var i SessionEvent
		if err := rows.Scan(
			&i.ID,
			&i.SessionID,
			&i.EventType,
			&i.Payload,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
