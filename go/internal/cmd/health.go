package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/rs/zerolog/log"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type natsStatus interface {
	IsConnected() bool
}

type HealthStatus struct {
	Healthy           bool
	SessionID         string
	Version           uint64
	Phase             models.Phase
	TimeLeft          int
	PresenterIndex    int
	Running           bool
	Displays          int
	DatabaseConnected *bool
	NATSConnected     *bool
	Errors            []string
}

// HealthChecker reports the engine position and the reachability of the
// optional backends. A nil db or nats means the backend is disabled.
type HealthChecker struct {
	snapshot func() models.Snapshot
	displays func() int
	db       pinger
	nats     natsStatus
}

func NewHealthChecker(snapshot func() models.Snapshot, displays func() int, db pinger, nats natsStatus) *HealthChecker {
	return &HealthChecker{
		snapshot: snapshot,
		displays: displays,
		db:       db,
		nats:     nats,
	}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	snap := h.snapshot()
	status := HealthStatus{
		Healthy:        true,
		SessionID:      snap.SessionID,
		Version:        snap.Version,
		Phase:          snap.CurrentPhase,
		TimeLeft:       snap.TimeLeft,
		PresenterIndex: snap.PresenterIndex,
		Running:        snap.IsRunning,
		Errors:         []string{},
	}
	if h.displays != nil {
		status.Displays = h.displays()
	}

	// Check database connection
	if h.db != nil {
		connected := true
		if err := h.db.PingContext(ctx); err != nil {
			connected = false
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
		}
		status.DatabaseConnected = &connected
	}

	// Check NATS connection
	if h.nats != nil {
		connected := h.nats.IsConnected()
		if !connected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
		status.NATSConnected = &connected
	}

	return status
}

// ServeHTTP answers /health with the status as JSON, 503 when unhealthy
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	response := map[string]interface{}{
		"healthy":         status.Healthy,
		"session_id":      status.SessionID,
		"version":         status.Version,
		"phase":           status.Phase,
		"time_left":       status.TimeLeft,
		"presenter_index": status.PresenterIndex,
		"running":         status.Running,
		"displays":        status.Displays,
		"errors":          status.Errors,
	}
	if status.DatabaseConnected != nil {
		response["database_connected"] = *status.DatabaseConnected
	}
	if status.NATSConnected != nil {
		response["nats_connected"] = *status.NATSConnected
	}

	w.Header().Set("Content-Type", "application/json")

	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Warn().Err(err).Msg("failed to write health response")
	}
}

// PrometheusExporter renders the health status in the Prometheus text format
type PrometheusExporter struct {
	checker *HealthChecker
}

func NewPrometheusExporter(checker *HealthChecker) *PrometheusExporter {
	return &PrometheusExporter{checker: checker}
}

func (e *PrometheusExporter) Export(ctx context.Context) string {
	status := e.checker.Check(ctx)

	var b strings.Builder
	gauge := func(name, help string, value int) {
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s gauge\n%s %d\n\n", name, help, name, name, value)
	}

	gauge("defense_timer_healthy", "Whether the timer server is healthy", boolToInt(status.Healthy))
	gauge("defense_timer_running", "Whether the countdown is running", boolToInt(status.Running))
	gauge("defense_timer_time_left_seconds", "Seconds left in the current phase", status.TimeLeft)
	gauge("defense_timer_presenter_index", "Current presenter index", status.PresenterIndex)
	gauge("defense_timer_displays", "Connected live displays", status.Displays)
	if status.DatabaseConnected != nil {
		gauge("defense_timer_database_connected", "Whether the database is reachable", boolToInt(*status.DatabaseConnected))
	}
	if status.NATSConnected != nil {
		gauge("defense_timer_nats_connected", "Whether NATS is connected", boolToInt(*status.NATSConnected))
	}

	fmt.Fprintf(&b, "# HELP defense_timer_state_version Version of the latest snapshot\n# TYPE defense_timer_state_version counter\ndefense_timer_state_version %d\n", status.Version)
	return b.String()
}

func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	if _, err := w.Write([]byte(e.Export(ctx))); err != nil {
		log.Warn().Err(err).Msg("failed to write metrics response")
	}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
