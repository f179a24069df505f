package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/mcdev12/defensetimer/go/internal/session/config"
	"github.com/rs/zerolog/log"
)

// ErrPresetNotFound is returned by a PresetStore for unknown names
var ErrPresetNotFound = errors.New("preset not found")

// errNoStore is returned by preset procedures when no store is configured
var errNoStore = errors.New("preset storage is disabled")

// Controller defines what the service layer needs from the session engine
type Controller interface {
	Start() models.Snapshot
	Pause() models.Snapshot
	RestartPhase() models.Snapshot
	ResetSession() models.Snapshot
	SkipPhase() models.Snapshot
	SetPresenterIndex(n int) models.Snapshot
	AdvanceToNextPresenter() models.Snapshot
	Snapshot() models.Snapshot
	Config() models.SessionConfig
	UpdateConfig(cfg models.SessionConfig) (models.Snapshot, error)
}

// PresetStore persists named configurations
type PresetStore interface {
	SavePreset(ctx context.Context, name string, cfg models.SessionConfig) (time.Time, error)
	GetPreset(ctx context.Context, name string) (models.SessionConfig, time.Time, error)
	ListPresets(ctx context.Context) ([]Preset, error)
}

// Service implements the SessionService Connect interface
type Service struct {
	ctrl    Controller
	presets PresetStore
}

// NewService creates a session service. presets may be nil.
func NewService(ctrl Controller, presets PresetStore) *Service {
	return &Service{
		ctrl:    ctrl,
		presets: presets,
	}
}

// Verify that Service implements the SessionServiceHandler interface
var _ SessionServiceHandler = (*Service)(nil)

func stateResponse(snap models.Snapshot) *connect.Response[StateResponse] {
	return connect.NewResponse(&StateResponse{State: snap})
}

// Start runs the countdown
func (s *Service) Start(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return stateResponse(s.ctrl.Start()), nil
}

// Pause freezes the countdown
func (s *Service) Pause(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return stateResponse(s.ctrl.Pause()), nil
}

// RestartPhase refills the current phase
func (s *Service) RestartPhase(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return stateResponse(s.ctrl.RestartPhase()), nil
}

// ResetSession returns to the start of the session
func (s *Service) ResetSession(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return stateResponse(s.ctrl.ResetSession()), nil
}

// SkipPhase ends the current phase
func (s *Service) SkipPhase(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return stateResponse(s.ctrl.SkipPhase()), nil
}

// SetPresenterIndex overrides the presenter index. Out-of-range values are
// ignored by the engine, so the response simply shows the unchanged state.
func (s *Service) SetPresenterIndex(ctx context.Context, req *connect.Request[SetPresenterIndexRequest]) (*connect.Response[StateResponse], error) {
	return stateResponse(s.ctrl.SetPresenterIndex(req.Msg.PresenterIndex)), nil
}

// AdvanceToNextPresenter starts the next presenter's cycle
func (s *Service) AdvanceToNextPresenter(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return stateResponse(s.ctrl.AdvanceToNextPresenter()), nil
}

// GetState returns the current snapshot
func (s *Service) GetState(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return stateResponse(s.ctrl.Snapshot()), nil
}

// GetConfig returns the active configuration
func (s *Service) GetConfig(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[GetConfigResponse], error) {
	return connect.NewResponse(&GetConfigResponse{Config: s.ctrl.Config()}), nil
}

// UpdateConfig replaces the configuration
func (s *Service) UpdateConfig(ctx context.Context, req *connect.Request[UpdateConfigRequest]) (*connect.Response[StateResponse], error) {
	snap, err := s.ctrl.UpdateConfig(req.Msg.Config)
	if err != nil {
		return nil, configError(err)
	}
	return stateResponse(snap), nil
}

// ListPresets lists stored presets
func (s *Service) ListPresets(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListPresetsResponse], error) {
	if s.presets == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errNoStore)
	}
	presets, err := s.presets.ListPresets(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list presets")
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&ListPresetsResponse{Presets: presets}), nil
}

// SavePreset stores a configuration under a name
func (s *Service) SavePreset(ctx context.Context, req *connect.Request[SavePresetRequest]) (*connect.Response[Preset], error) {
	if s.presets == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errNoStore)
	}
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("preset name is required"))
	}

	cfg := s.ctrl.Config()
	if req.Msg.Config != nil {
		cfg = *req.Msg.Config
	}
	if err := config.Validate(cfg); err != nil {
		return nil, configError(err)
	}

	updatedAt, err := s.presets.SavePreset(ctx, name, cfg)
	if err != nil {
		log.Error().Err(err).Str("preset", name).Msg("failed to save preset")
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&Preset{Name: name, Config: cfg, UpdatedAt: updatedAt}), nil
}

// ApplyPreset loads a stored preset into the session
func (s *Service) ApplyPreset(ctx context.Context, req *connect.Request[ApplyPresetRequest]) (*connect.Response[StateResponse], error) {
	if s.presets == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errNoStore)
	}
	cfg, _, err := s.presets.GetPreset(ctx, req.Msg.Name)
	if errors.Is(err, ErrPresetNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("preset %q: %w", req.Msg.Name, err))
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	snap, err := s.ctrl.UpdateConfig(cfg)
	if err != nil {
		return nil, configError(err)
	}
	return stateResponse(snap), nil
}

func configError(err error) error {
	if errors.Is(err, config.ErrInvalidConfig) {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
