package gateway

import (
	"sync"

	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Hub is the in-process publish/subscribe channel between the engine and the
// displays. It keeps the newest snapshot; anything older than what it already
// holds for the same session is dropped.
type Hub struct {
	mu     sync.RWMutex
	latest *models.Snapshot
	subs   map[int]chan models.Snapshot
	nextID int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan models.Snapshot)}
}

// Publish stores snap and forwards it to every subscriber. It never blocks: a
// subscriber that has fallen behind loses its oldest pending snapshot.
func (h *Hub) Publish(snap models.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.latest != nil && h.latest.SessionID == snap.SessionID && snap.Version <= h.latest.Version {
		log.Debug().
			Str("session_id", snap.SessionID).
			Uint64("version", snap.Version).
			Uint64("latest", h.latest.Version).
			Msg("dropping stale snapshot")
		return
	}
	h.latest = &snap

	for _, ch := range h.subs {
		offer(ch, snap)
	}
}

func offer(ch chan models.Snapshot, snap models.Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Latest returns the newest snapshot and whether one was published yet.
func (h *Hub) Latest() (models.Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return models.Snapshot{}, false
	}
	return *h.latest, true
}

// Subscribe returns a channel of snapshots and a function that ends the
// subscription. The current snapshot, if any, is delivered first.
func (h *Hub) Subscribe(buffer int) (<-chan models.Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan models.Snapshot, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	if h.latest != nil {
		ch <- *h.latest
	}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			close(ch)
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
