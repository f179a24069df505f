package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type SessionPreset struct {
	Name      string          `json:"name"`
	Config    json.RawMessage `json:"config"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type SessionEvent struct {
	ID        uuid.UUID             `json:"id"`
	SessionID string                `json:"session_id"`
	EventType string                `json:"event_type"`
	Payload   pqtype.NullRawMessage `json:"payload"`
	CreatedAt time.Time             `json:"created_at"`
}
