package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Handler persists or forwards one event.
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e Event) error

func (f HandlerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

// AsyncSink decouples event handling from the engine. Record never blocks: a
// full queue drops the event with a warning. Handler errors are logged.
type AsyncSink struct {
	name    string
	handler Handler
	queue   chan Event

	mu     sync.Mutex
	closed bool
}

// NewAsyncSink creates a sink with room for size pending events.
func NewAsyncSink(name string, size int, handler Handler) *AsyncSink {
	if size <= 0 {
		size = 1
	}
	return &AsyncSink{
		name:    name,
		handler: handler,
		queue:   make(chan Event, size),
	}
}

// Record enqueues e.
func (s *AsyncSink) Record(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- e:
	default:
		log.Warn().
			Str("sink", s.name).
			Str("event_type", string(e.Type)).
			Str("event_id", e.ID.String()).
			Msg("event queue full, dropping event")
	}
}

// Run drains the queue until ctx is done or the sink is closed.
func (s *AsyncSink) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-s.queue:
			if !ok {
				return
			}
			s.handle(ctx, e)
		}
	}
}

func (s *AsyncSink) handle(ctx context.Context, e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("sink", s.name).Msg("event handler panicked")
		}
	}()
	if err := s.handler.Handle(ctx, e); err != nil {
		log.Error().
			Err(err).
			Str("sink", s.name).
			Str("event_type", string(e.Type)).
			Msg("failed to handle event")
	}
}

// Close stops accepting events. Events already queued are still handled by Run.
func (s *AsyncSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
}
