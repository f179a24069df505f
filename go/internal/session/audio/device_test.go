package audio

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bufferSink struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

func (s *bufferSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *bufferSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *bufferSink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestDevice_OpensLazily(t *testing.T) {
	opens := 0
	sink := &bufferSink{}
	d := NewDevice(func() (io.WriteCloser, error) {
		opens++
		return sink, nil
	})
	assert.Equal(t, 0, opens)

	d.PlayTickCue()
	d.PlayTickCue()
	require.NoError(t, d.Close())

	assert.Equal(t, 1, opens)
	assert.Equal(t, "\a\a", sink.String())
	assert.True(t, sink.closed)
}

func TestDevice_PatternLengths(t *testing.T) {
	sink := &bufferSink{}
	d := NewDevice(func() (io.WriteCloser, error) { return sink, nil })
	savedComplete, savedWarning := phaseCompletePattern, warningPattern
	phaseCompletePattern.Gap = 0
	warningPattern.Gap = 0
	t.Cleanup(func() {
		phaseCompletePattern, warningPattern = savedComplete, savedWarning
	})

	d.PlayWarningCue()
	d.PlayPhaseCompleteCue()
	require.NoError(t, d.Close())

	assert.Equal(t, strings.Repeat("\a", 5), sink.String())
}

func TestDevice_UnavailableIsSilent(t *testing.T) {
	opens := 0
	d := NewDevice(func() (io.WriteCloser, error) {
		opens++
		return nil, errors.New("no audio hardware")
	})

	assert.NotPanics(t, func() {
		for i := 0; i < 100; i++ {
			d.PlayPhaseCompleteCue()
			d.PlayWarningCue()
			d.PlayTickCue()
		}
	})
	assert.Equal(t, 1, opens)
	assert.NoError(t, d.Close())
}

func TestDevice_CloseWithoutUse(t *testing.T) {
	d := NewDevice(func() (io.WriteCloser, error) {
		t.Fatal("device must not open on close")
		return nil, nil
	})
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	assert.NotPanics(t, d.PlayTickCue)
}

func TestNew(t *testing.T) {
	assert.IsType(t, LogPlayer{}, New("log"))
	assert.IsType(t, Nop{}, New(""))
	assert.IsType(t, &Device{}, New("terminal"))
}
