package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/defensetimer/go/internal/models"
)

// Event is the envelope for everything the engine reports about a session
type Event struct {
	ID        uuid.UUID       `json:"id"`
	SessionID string          `json:"session_id"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Type represents the type of session event
type Type string

const (
	TypeTimerStarted     Type = "TimerStarted"
	TypeTimerPaused      Type = "TimerPaused"
	TypePhaseStarted     Type = "PhaseStarted"
	TypePhaseEnded       Type = "PhaseEnded"
	TypePhaseRestarted   Type = "PhaseRestarted"
	TypePresenterChanged Type = "PresenterChanged"
	TypeSessionCompleted Type = "SessionCompleted"
	TypeSessionReset     Type = "SessionReset"
	TypeConfigUpdated    Type = "ConfigUpdated"
)

// Reasons carried by PhaseEnded and PresenterChanged payloads.
const (
	ReasonExpired  = "expired"
	ReasonSkipped  = "skipped"
	ReasonWrap     = "wrap"
	ReasonManual   = "manual"
	ReasonOverride = "override"
)

// TimerPayload is the payload for TimerStarted and TimerPaused
type TimerPayload struct {
	Phase          models.Phase `json:"phase"`
	TimeLeft       int          `json:"time_left"`
	PresenterIndex int          `json:"presenter_index"`
}

// PhaseStartedPayload is the payload for PhaseStarted and PhaseRestarted
type PhaseStartedPayload struct {
	Phase           models.Phase `json:"phase"`
	Label           string       `json:"label"`
	DurationSeconds int          `json:"duration_seconds"`
	PresenterIndex  int          `json:"presenter_index"`
	Running         bool         `json:"running"`
}

// PhaseEndedPayload is the payload for PhaseEnded
type PhaseEndedPayload struct {
	Phase          models.Phase `json:"phase"`
	PresenterIndex int          `json:"presenter_index"`
	Reason         string       `json:"reason"`
	TimeLeft       int          `json:"time_left"`
}

// PresenterChangedPayload is the payload for PresenterChanged
type PresenterChangedPayload struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Reason string `json:"reason"`
}

// SessionCompletedPayload is the payload for SessionCompleted
type SessionCompletedPayload struct {
	Presenters int `json:"presenters"`
}

// SessionResetPayload is the payload for SessionReset
type SessionResetPayload struct {
	Phase          models.Phase `json:"phase"`
	PresenterIndex int          `json:"presenter_index"`
}

// ConfigUpdatedPayload is the payload for ConfigUpdated
type ConfigUpdatedPayload struct {
	Config models.SessionConfig `json:"config"`
}

// New builds an event with a fresh id. Payloads are plain structs, so a
// marshal failure is a programming error and is returned rather than hidden.
func New(sessionID string, eventType Type, at time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.New(),
		SessionID: sessionID,
		Type:      eventType,
		Timestamp: at.UTC(),
		Payload:   data,
	}, nil
}

// Subject returns the NATS subject the event is published on.
func (e Event) Subject() string {
	return SubjectPrefix + "." + string(e.Type)
}

// SubjectPrefix is the subject namespace of session events.
const SubjectPrefix = "session.events"

// Decode parses the payload into the struct matching the event type
func Decode(e Event) (any, error) {
	var target any
	switch e.Type {
	case TypeTimerStarted, TypeTimerPaused:
		target = &TimerPayload{}
	case TypePhaseStarted, TypePhaseRestarted:
		target = &PhaseStartedPayload{}
	case TypePhaseEnded:
		target = &PhaseEndedPayload{}
	case TypePresenterChanged:
		target = &PresenterChangedPayload{}
	case TypeSessionCompleted:
		target = &SessionCompletedPayload{}
	case TypeSessionReset:
		target = &SessionResetPayload{}
	case TypeConfigUpdated:
		target = &ConfigUpdatedPayload{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", e.Type)
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", e.Type, err)
	}
	return target, nil
}
