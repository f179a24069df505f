package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/mcdev12/defensetimer/go/internal/session/display"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(session string, version uint64, timeLeft int) models.Snapshot {
	return models.Snapshot{
		SessionID: session,
		Version:   version,
		TimerState: models.TimerState{
			CurrentPhase:   models.PhasePresentation,
			TimeLeft:       timeLeft,
			IsRunning:      true,
			PresenterIndex: 1,
		},
	}
}

func TestHub_LastWriteWins(t *testing.T) {
	hub := NewHub()
	_, ok := hub.Latest()
	assert.False(t, ok)

	hub.Publish(snapshot("a", 2, 100))
	hub.Publish(snapshot("a", 1, 110))
	hub.Publish(snapshot("a", 2, 90))

	latest, ok := hub.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(2), latest.Version)
	assert.Equal(t, 100, latest.TimeLeft)

	// A new session restarts the version sequence.
	hub.Publish(snapshot("b", 1, 60))
	latest, _ = hub.Latest()
	assert.Equal(t, "b", latest.SessionID)
}

func TestHub_SubscribeConvergesToNewest(t *testing.T) {
	hub := NewHub()
	hub.Publish(snapshot("a", 1, 120))

	updates, cancel := hub.Subscribe(2)
	defer cancel()

	for v := uint64(2); v <= 10; v++ {
		hub.Publish(snapshot("a", v, 120-int(v)))
	}

	var last models.Snapshot
	for len(updates) > 0 {
		last = <-updates
	}
	assert.Equal(t, uint64(10), last.Version)
}

func TestHub_SubscribeDeliversLatestFirst(t *testing.T) {
	hub := NewHub()
	hub.Publish(snapshot("a", 3, 42))

	updates, cancel := hub.Subscribe(1)
	first := <-updates
	assert.Equal(t, 42, first.TimeLeft)
	assert.Equal(t, 1, hub.Subscribers())

	cancel()
	cancel()
	_, open := <-updates
	assert.False(t, open)
	assert.Equal(t, 0, hub.Subscribers())
}

func TestStateHandler(t *testing.T) {
	hub := NewHub()
	handler := NewStateHandler(hub, display.Thresholds{WarningSeconds: 30})

	rec := httptest.NewRecorder()
	handler.HandleGetState(rec, httptest.NewRequest(http.MethodGet, "/api/session/state", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	hub.Publish(snapshot("a", 1, 25))
	rec = httptest.NewRecorder()
	handler.HandleGetState(rec, httptest.NewRequest(http.MethodGet, "/api/session/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "PRESENTATION", body["currentPhase"])
	assert.EqualValues(t, 25, body["timeLeft"])
	assert.Equal(t, "00:25", body["clock"])
	assert.Equal(t, "warning", body["level"])

	rec = httptest.NewRecorder()
	handler.HandleGetState(rec, httptest.NewRequest(http.MethodPost, "/api/session/state", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestService_LiveWebSocket(t *testing.T) {
	hub := NewHub()
	hub.Publish(snapshot("a", 1, 120))

	svc := NewService(DefaultConfig(), hub)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Start(ctx)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var view display.View
	require.NoError(t, conn.ReadJSON(&view))
	assert.Equal(t, uint64(1), view.Version)
	assert.Equal(t, "02:00", view.Clock)

	hub.Publish(snapshot("a", 2, 119))
	for view.Version < 2 {
		require.NoError(t, conn.ReadJSON(&view))
	}
	assert.Equal(t, 119, view.TimeLeft)
	assert.Equal(t, display.LevelNormal, view.Level)

	require.Eventually(t, func() bool {
		return svc.GetStats()["total_connections"] == 1
	}, 2*time.Second, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/stats", nil))
	var stats ConnectionStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalConnections)
}
