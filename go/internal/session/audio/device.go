// Package audio renders session cues. The device is opened on first use and
// released by Close; every play request is fire-and-forget.
package audio

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultQueueSize = 16

// ErrClosed is returned by Open once the device has been closed.
var ErrClosed = errors.New("audio device closed")

// OpenFunc acquires the output sink.
type OpenFunc func() (io.WriteCloser, error)

// Pattern is a sequence of terminal bell pulses separated by Gap.
type Pattern struct {
	Pulses int
	Gap    time.Duration
}

var (
	phaseCompletePattern = Pattern{Pulses: 3, Gap: 300 * time.Millisecond}
	warningPattern       = Pattern{Pulses: 2, Gap: 200 * time.Millisecond}
	tickPattern          = Pattern{Pulses: 1}
)

// Device plays cue patterns on a lazily opened sink from a single goroutine.
// A full queue drops the request.
type Device struct {
	open OpenFunc

	once    sync.Once
	openErr error
	sink    io.WriteCloser

	queue chan Pattern
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewDevice creates a device that opens its sink with open on first use.
func NewDevice(open OpenFunc) *Device {
	return &Device{
		open:  open,
		queue: make(chan Pattern, defaultQueueSize),
		done:  make(chan struct{}),
	}
}

// Terminal returns a device that rings the bell on the process's terminal.
func Terminal() *Device {
	return NewDevice(func() (io.WriteCloser, error) {
		return os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	})
}

func (d *Device) PlayPhaseCompleteCue() { d.enqueue(phaseCompletePattern) }
func (d *Device) PlayWarningCue()       { d.enqueue(warningPattern) }
func (d *Device) PlayTickCue()          { d.enqueue(tickPattern) }

func (d *Device) enqueue(p Pattern) {
	if err := d.acquire(); err != nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- p:
	default:
		log.Debug().Int("pulses", p.Pulses).Msg("audio queue full, dropping cue")
	}
}

// acquire opens the sink once. A failed open leaves the device silent.
func (d *Device) acquire() error {
	d.once.Do(func() {
		d.mu.Lock()
		closed := d.closed
		d.mu.Unlock()
		if closed {
			d.openErr = ErrClosed
			close(d.done)
			return
		}

		sink, err := d.open()
		if err != nil {
			d.openErr = err
			log.Warn().Err(err).Msg("audio device unavailable, cues will be silent")
			close(d.done)
			return
		}
		d.sink = sink
		go d.run()
	})
	return d.openErr
}

func (d *Device) run() {
	defer close(d.done)
	for p := range d.queue {
		d.render(p)
	}
}

func (d *Device) render(p Pattern) {
	for i := 0; i < p.Pulses; i++ {
		if i > 0 && p.Gap > 0 {
			time.Sleep(p.Gap)
		}
		if _, err := io.WriteString(d.sink, "\a"); err != nil {
			log.Debug().Err(err).Msg("audio write failed")
			return
		}
	}
}

// Close drains pending cues and releases the sink.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	// Resolve the lazy open so a never-used device does not open on Close.
	d.once.Do(func() {
		d.openErr = ErrClosed
		close(d.done)
	})
	<-d.done

	if d.sink != nil {
		return d.sink.Close()
	}
	return nil
}

// Nop discards every cue.
type Nop struct{}

func (Nop) PlayPhaseCompleteCue() {}
func (Nop) PlayWarningCue()       {}
func (Nop) PlayTickCue()          {}

// LogPlayer writes every cue to the log instead of a sound device.
type LogPlayer struct{}

func (LogPlayer) PlayPhaseCompleteCue() { log.Info().Str("cue", "phase_complete").Msg("cue") }
func (LogPlayer) PlayWarningCue()       { log.Info().Str("cue", "warning").Msg("cue") }
func (LogPlayer) PlayTickCue()          { log.Debug().Str("cue", "tick").Msg("cue") }

// New returns a player for the named backend: "terminal", "log" or "none".
func New(backend string) Player {
	switch strings.ToLower(backend) {
	case "terminal", "bell":
		return Terminal()
	case "log":
		return LogPlayer{}
	default:
		return Nop{}
	}
}

// Player mirrors the cue player contract without importing the cue package.
type Player interface {
	PlayPhaseCompleteCue()
	PlayWarningCue()
	PlayTickCue()
}
