package rpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/mcdev12/defensetimer/go/internal/session/config"
	"github.com/mcdev12/defensetimer/go/internal/session/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryPresets struct {
	mu      sync.Mutex
	presets map[string]Preset
}

func (m *memoryPresets) SavePreset(_ context.Context, name string, cfg models.SessionConfig) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.presets == nil {
		m.presets = make(map[string]Preset)
	}
	now := time.Now().UTC()
	m.presets[name] = Preset{Name: name, Config: cfg.Clone(), UpdatedAt: now}
	return now, nil
}

func (m *memoryPresets) GetPreset(_ context.Context, name string) (models.SessionConfig, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.presets[name]
	if !ok {
		return models.SessionConfig{}, time.Time{}, ErrPresetNotFound
	}
	return p.Config.Clone(), p.UpdatedAt, nil
}

func (m *memoryPresets) ListPresets(context.Context) ([]Preset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Preset, 0, len(m.presets))
	for _, p := range m.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func newTestClient(t *testing.T, presets PresetStore) (*Client, *engine.Engine) {
	t.Helper()

	eng, err := engine.New(config.Default(), engine.WithClock(clockwork.NewFakeClock()))
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	mux := http.NewServeMux()
	path, handler := NewSessionServiceHandler(NewService(eng, presets))
	mux.Handle(path, handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewClient(srv.Client(), srv.URL), eng
}

func TestService_Commands(t *testing.T) {
	client, eng := newTestClient(t, nil)
	ctx := context.Background()

	res, err := client.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseSetup, res.State.CurrentPhase)
	assert.Equal(t, 300, res.State.TimeLeft)

	res, err = client.Start(ctx)
	require.NoError(t, err)
	assert.True(t, res.State.IsRunning)

	res, err = client.SetPresenterIndex(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, res.State.PresenterIndex, "ignored while running")

	res, err = client.Pause(ctx)
	require.NoError(t, err)
	assert.True(t, res.State.IsPaused)

	res, err = client.SetPresenterIndex(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, res.State.PresenterIndex)

	res, err = client.SkipPhase(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PhasePresentation, res.State.CurrentPhase)

	res, err = client.RestartPhase(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1200, res.State.TimeLeft)

	res, err = client.AdvanceToNextPresenter(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, res.State.PresenterIndex)

	res, err = client.ResetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.State.PresenterIndex)
	assert.Equal(t, eng.Snapshot().TimerState, res.State.TimerState)
	assert.Equal(t, eng.Snapshot().Version, res.State.Version)
}

func TestService_UpdateConfig(t *testing.T) {
	client, _ := newTestClient(t, nil)
	ctx := context.Background()

	cfg, err := client.GetConfig(ctx)
	require.NoError(t, err)
	cfg.Config.Phases[models.PhaseSetup] = models.PhaseConfig{DurationSeconds: 90, Label: "Setup"}

	res, err := client.UpdateConfig(ctx, UpdateConfigRequest{Config: cfg.Config})
	require.NoError(t, err)
	assert.Equal(t, 90, res.State.TimeLeft)

	cfg.Config.Phases[models.PhaseSetup] = models.PhaseConfig{DurationSeconds: 90, WarningSeconds: 120}
	_, err = client.UpdateConfig(ctx, UpdateConfigRequest{Config: cfg.Config})
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestService_Presets(t *testing.T) {
	client, _ := newTestClient(t, &memoryPresets{})
	ctx := context.Background()

	short := config.Default()
	delete(short.Phases, models.PhaseSetup)
	short.Phases[models.PhasePresentation] = models.PhaseConfig{DurationSeconds: 600, WarningSeconds: 120, Label: "Talk"}

	saved, err := client.SavePreset(ctx, SavePresetRequest{Name: "lightning", Config: &short})
	require.NoError(t, err)
	assert.Equal(t, "lightning", saved.Name)

	_, err = client.SavePreset(ctx, SavePresetRequest{Name: "default"})
	require.NoError(t, err)

	list, err := client.ListPresets(ctx)
	require.NoError(t, err)
	require.Len(t, list.Presets, 2)
	assert.Equal(t, "default", list.Presets[0].Name)

	res, err := client.ApplyPreset(ctx, "lightning")
	require.NoError(t, err)
	assert.Equal(t, models.PhasePresentation, res.State.CurrentPhase)
	assert.Equal(t, 600, res.State.TimeLeft)

	_, err = client.ApplyPreset(ctx, "missing")
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = client.SavePreset(ctx, SavePresetRequest{Name: "  "})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestService_PresetsDisabled(t *testing.T) {
	client, _ := newTestClient(t, nil)

	_, err := client.ListPresets(context.Background())
	assert.Equal(t, connect.CodeUnimplemented, connect.CodeOf(err))
}
