package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/mcdev12/defensetimer/go/internal/session/display"
	"github.com/rs/zerolog/log"
)

// StateProvider returns the newest published snapshot
type StateProvider interface {
	Latest() (models.Snapshot, bool)
}

// StateHandler handles HTTP requests for the live session state
type StateHandler struct {
	stateProvider StateProvider
	thresholds    display.Thresholds
}

// NewStateHandler creates a new state handler
func NewStateHandler(provider StateProvider, thresholds display.Thresholds) *StateHandler {
	return &StateHandler{
		stateProvider: provider,
		thresholds:    thresholds,
	}
}

// HandleGetState handles GET /api/session/state. It answers 204 until the
// first snapshot has been published.
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, ok := h.stateProvider.Latest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(display.Render(snap, h.thresholds)); err != nil {
		log.Error().Err(err).Msg("failed to encode session state response")
	}
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/session/state", h.HandleGetState)
}
