package store

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/mcdev12/defensetimer/go/internal/session/config"
	"github.com/mcdev12/defensetimer/go/internal/session/events"
	"github.com/mcdev12/defensetimer/go/internal/session/rpc"
	"github.com/mcdev12/defensetimer/go/internal/session/store/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQuerier keeps rows in memory with the same semantics as the SQL queries
type fakeQuerier struct {
	presets  map[string]db.SessionPreset
	events   []db.SessionEvent
	lastArgs db.ListEventsBySessionParams
	err      error
	now      time.Time
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		presets: make(map[string]db.SessionPreset),
		now:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeQuerier) UpsertPreset(_ context.Context, arg db.UpsertPresetParams) (db.SessionPreset, error) {
	if f.err != nil {
		return db.SessionPreset{}, f.err
	}
	f.now = f.now.Add(time.Minute)
	row := db.SessionPreset{Name: arg.Name, Config: arg.Config, UpdatedAt: f.now}
	f.presets[arg.Name] = row
	return row, nil
}

func (f *fakeQuerier) GetPreset(_ context.Context, name string) (db.SessionPreset, error) {
	if f.err != nil {
		return db.SessionPreset{}, f.err
	}
	row, ok := f.presets[name]
	if !ok {
		return db.SessionPreset{}, sql.ErrNoRows
	}
	return row, nil
}

func (f *fakeQuerier) ListPresets(context.Context) ([]db.SessionPreset, error) {
	if f.err != nil {
		return nil, f.err
	}
	var rows []db.SessionPreset
	for _, row := range f.presets {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

func (f *fakeQuerier) InsertEvent(_ context.Context, arg db.InsertEventParams) error {
	if f.err != nil {
		return f.err
	}
	for _, e := range f.events {
		if e.ID == arg.ID {
			return nil
		}
	}
	f.events = append(f.events, db.SessionEvent(arg))
	return nil
}

func (f *fakeQuerier) ListEventsBySession(_ context.Context, arg db.ListEventsBySessionParams) ([]db.SessionEvent, error) {
	f.lastArgs = arg
	var rows []db.SessionEvent
	for _, e := range f.events {
		if e.SessionID == arg.SessionID && int32(len(rows)) < arg.Limit {
			rows = append(rows, e)
		}
	}
	return rows, nil
}

func TestRepository_Presets(t *testing.T) {
	ctx := context.Background()
	q := newFakeQuerier()
	repo := NewRepository(q)

	cfg := config.Default()
	total := 3
	cfg.TotalPresenters = &total
	cfg.Phases[models.PhasePresentation] = models.PhaseConfig{DurationSeconds: 900, WarningSeconds: 120, Label: "Talk"}

	savedAt, err := repo.SavePreset(ctx, "thesis", cfg)
	require.NoError(t, err)
	assert.Equal(t, q.now, savedAt)

	got, updatedAt, err := repo.GetPreset(ctx, "thesis")
	require.NoError(t, err)
	assert.Equal(t, savedAt, updatedAt)
	assert.Equal(t, cfg, got)

	_, err = repo.SavePreset(ctx, "lightning", config.Default())
	require.NoError(t, err)

	list, err := repo.ListPresets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "lightning", list[0].Name)
	assert.Equal(t, "thesis", list[1].Name)
	assert.Equal(t, 900, list[1].Config.Duration(models.PhasePresentation))
}

func TestRepository_GetPreset_NotFound(t *testing.T) {
	repo := NewRepository(newFakeQuerier())

	_, _, err := repo.GetPreset(context.Background(), "missing")
	assert.ErrorIs(t, err, rpc.ErrPresetNotFound)
}

func TestRepository_CorruptPreset(t *testing.T) {
	q := newFakeQuerier()
	q.presets["broken"] = db.SessionPreset{Name: "broken", Config: []byte("{not json")}
	repo := NewRepository(q)

	_, _, err := repo.GetPreset(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, rpc.ErrPresetNotFound)

	_, err = repo.ListPresets(context.Background())
	assert.Error(t, err)
}

func TestRepository_QueryErrors(t *testing.T) {
	q := newFakeQuerier()
	q.err = errors.New("connection refused")
	repo := NewRepository(q)
	ctx := context.Background()

	_, err := repo.SavePreset(ctx, "x", config.Default())
	assert.ErrorIs(t, err, q.err)

	_, _, err = repo.GetPreset(ctx, "x")
	assert.ErrorIs(t, err, q.err)
	assert.NotErrorIs(t, err, rpc.ErrPresetNotFound)

	e, err := events.New("s1", events.TypeSessionReset, time.Now(), events.SessionResetPayload{})
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Handle(ctx, e), q.err)
}

func TestRepository_EventLog(t *testing.T) {
	ctx := context.Background()
	q := newFakeQuerier()
	repo := NewRepository(q)

	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	started, err := events.New("s1", events.TypeTimerStarted, at, events.TimerPayload{Phase: models.PhaseSetup, TimeLeft: 300, PresenterIndex: 1})
	require.NoError(t, err)
	other, err := events.New("s2", events.TypeTimerStarted, at, events.TimerPayload{Phase: models.PhaseSetup})
	require.NoError(t, err)
	paused, err := events.New("s1", events.TypeTimerPaused, at.Add(time.Second), events.TimerPayload{Phase: models.PhaseSetup, TimeLeft: 299, PresenterIndex: 1})
	require.NoError(t, err)

	for _, e := range []events.Event{started, other, paused, started} {
		require.NoError(t, repo.Handle(ctx, e))
	}

	got, err := repo.ListEvents(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, int32(defaultEventLimit), q.lastArgs.Limit)
	require.Len(t, got, 2, "replayed event is stored once")
	assert.Equal(t, started.ID, got[0].ID)
	assert.Equal(t, events.TypeTimerPaused, got[1].Type)
	assert.Equal(t, paused.Timestamp, got[1].Timestamp)

	decoded, err := events.Decode(got[1])
	require.NoError(t, err)
	assert.Equal(t, 299, decoded.(*events.TimerPayload).TimeLeft)

	_, err = repo.ListEvents(ctx, "s1", 1<<20)
	require.NoError(t, err)
	assert.Equal(t, int32(maxEventLimit), q.lastArgs.Limit)
}
