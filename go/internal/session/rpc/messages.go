package rpc

import (
	"time"

	"github.com/mcdev12/defensetimer/go/internal/models"
)

// Empty is the request of commands without arguments
type Empty struct{}

// StateResponse carries the snapshot observed right after a command
type StateResponse struct {
	State models.Snapshot `json:"state"`
}

// SetPresenterIndexRequest selects the presenter index
type SetPresenterIndexRequest struct {
	PresenterIndex int `json:"presenterIndex"`
}

// UpdateConfigRequest replaces the session configuration
type UpdateConfigRequest struct {
	Config models.SessionConfig `json:"config"`
}

// GetConfigResponse returns the active configuration
type GetConfigResponse struct {
	Config models.SessionConfig `json:"config"`
}

// ApplyPresetRequest loads a stored preset into the session
type ApplyPresetRequest struct {
	Name string `json:"name"`
}

// Preset is a named, stored configuration
type Preset struct {
	Name      string               `json:"name"`
	Config    models.SessionConfig `json:"config"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// SavePresetRequest stores the active configuration, or Config when set,
// under Name
type SavePresetRequest struct {
	Name   string                `json:"name"`
	Config *models.SessionConfig `json:"config,omitempty"`
}

// ListPresetsResponse lists stored presets
type ListPresetsResponse struct {
	Presets []Preset `json:"presets"`
}
