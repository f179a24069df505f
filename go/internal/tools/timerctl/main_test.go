package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/defensetimer/go/internal/session/config"
	"github.com/mcdev12/defensetimer/go/internal/session/engine"
	"github.com/mcdev12/defensetimer/go/internal/session/gateway"
	"github.com/mcdev12/defensetimer/go/internal/session/rpc"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	hub := gateway.NewHub()
	eng, err := engine.New(config.Default(),
		engine.WithClock(clockwork.NewFakeClock()),
		engine.WithPublisher(hub),
	)
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	hub.Publish(eng.Snapshot())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	mux := http.NewServeMux()
	path, handler := rpc.NewSessionServiceHandler(rpc.NewService(eng, nil))
	mux.Handle(path, handler)
	gw := gateway.NewService(gateway.DefaultConfig(), hub)
	gw.RegisterRoutes(mux)
	go gw.Start(ctx)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", server}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	srv := newTestServer(t)

	out, err := run(t, srv.URL, "state")
	require.NoError(t, err)
	assert.Equal(t, "Presenter 1 · Setup  05:00  stopped\n", out)

	out, err = run(t, srv.URL, "start")
	require.NoError(t, err)
	assert.Contains(t, out, "running")

	out, err = run(t, srv.URL, "pause")
	require.NoError(t, err)
	assert.Contains(t, out, "paused")

	out, err = run(t, srv.URL, "presenter", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Presenter 3 · Setup")

	out, err = run(t, srv.URL, "skip")
	require.NoError(t, err)
	assert.Contains(t, out, "Presentation")

	out, err = run(t, srv.URL, "reset")
	require.NoError(t, err)
	assert.Equal(t, "Presenter 1 · Setup  05:00  stopped\n", out)

	_, err = run(t, srv.URL, "presenter", "zero")
	assert.Error(t, err)
}

func TestConfigPhase(t *testing.T) {
	srv := newTestServer(t)

	out, err := run(t, srv.URL, "config", "phase", "setup", "2.5")
	require.NoError(t, err)
	assert.Contains(t, out, "02:30")

	out, err = run(t, srv.URL, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "setup:")

	_, err = run(t, srv.URL, "config", "phase", "intermission", "5")
	assert.Error(t, err)

	_, err = run(t, srv.URL, "config", "phase", "setup", "soon")
	assert.Error(t, err)
}

func TestPresetsWithoutStore(t *testing.T) {
	srv := newTestServer(t)

	_, err := run(t, srv.URL, "presets", "list")
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	srv := newTestServer(t)

	out, err := run(t, srv.URL, "watch", "--count", "1")
	require.NoError(t, err)
	assert.Equal(t, "[normal] Presenter 1 · Setup  05:00  stopped\n", out)
}

func TestLiveURL(t *testing.T) {
	tests := []struct {
		server  string
		want    string
		wantErr bool
	}{
		{server: "http://localhost:8080", want: "ws://localhost:8080/ws/live"},
		{server: "https://timer.example.com/", want: "wss://timer.example.com/ws/live"},
		{server: "ws://10.0.0.2:9000/base", want: "ws://10.0.0.2:9000/base/ws/live"},
		{server: "ftp://host", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.server, func(t *testing.T) {
			got, err := liveURL(tt.server)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
