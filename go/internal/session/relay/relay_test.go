package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/mcdev12/defensetimer/go/internal/session/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	mu      sync.Mutex
	puts    map[string][]byte
	count   int
	failPut bool
}

func (f *fakeKV) Put(_ context.Context, key string, value []byte) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	if f.failPut {
		return 0, errors.New("no responders")
	}
	if f.puts == nil {
		f.puts = make(map[string][]byte)
	}
	f.puts[key] = value
	return uint64(f.count), nil
}

func (f *fakeKV) Watch(context.Context, string, ...jetstream.WatchOpt) (jetstream.KeyWatcher, error) {
	return nil, errors.New("watch unsupported")
}

func (f *fakeKV) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func TestKVPublisher_Run(t *testing.T) {
	kv := &fakeKV{}
	p := &KVPublisher{kv: kv, key: DefaultConfig().Key}

	updates := make(chan models.Snapshot, 3)
	updates <- models.Snapshot{SessionID: "s", Version: 1}
	updates <- models.Snapshot{SessionID: "s", Version: 2, TimerState: models.TimerState{TimeLeft: 7}}
	close(updates)

	p.Run(context.Background(), updates)

	assert.Equal(t, 2, kv.putCount())
	var stored map[string]any
	require.NoError(t, json.Unmarshal(kv.puts["defense-timer-state"], &stored))
	assert.EqualValues(t, 2, stored["version"])
	assert.EqualValues(t, 7, stored["timeLeft"])
}

func TestKVPublisher_RunSurvivesFailures(t *testing.T) {
	kv := &fakeKV{failPut: true}
	p := &KVPublisher{kv: kv, key: "k"}

	updates := make(chan models.Snapshot)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, updates)
		close(done)
	}()

	updates <- models.Snapshot{Version: 1}
	updates <- models.Snapshot{Version: 2}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	assert.Equal(t, 2, kv.putCount())
}

func TestKVWatcher_WatchError(t *testing.T) {
	w := &KVWatcher{kv: &fakeKV{}, key: "k"}
	err := w.Watch(context.Background(), func(models.Snapshot) {})
	assert.Error(t, err)
}

func TestDecodeEntry(t *testing.T) {
	data, err := json.Marshal(models.Snapshot{SessionID: "s", Version: 3})
	require.NoError(t, err)

	snap, ok := decodeEntry(jetstream.KeyValuePut, data)
	require.True(t, ok)
	assert.Equal(t, uint64(3), snap.Version)

	_, ok = decodeEntry(jetstream.KeyValueDelete, nil)
	assert.False(t, ok)

	_, ok = decodeEntry(jetstream.KeyValuePut, []byte("{broken"))
	assert.False(t, ok)
}

type fakePublisher struct {
	msgs []*nats.Msg
	err  error
}

func (f *fakePublisher) PublishMsg(_ context.Context, msg *nats.Msg, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.msgs = append(f.msgs, msg)
	return &jetstream.PubAck{Stream: "SESSION_EVENTS", Sequence: uint64(len(f.msgs))}, nil
}

func TestEventPublisher_Handle(t *testing.T) {
	js := &fakePublisher{}
	p := &EventPublisher{js: js, config: DefaultConfig()}

	e, err := events.New("s1", events.TypePhaseStarted, time.Now(), events.PhaseStartedPayload{Phase: models.PhaseQAndA})
	require.NoError(t, err)
	require.NoError(t, p.Handle(context.Background(), e))

	require.Len(t, js.msgs, 1)
	msg := js.msgs[0]
	assert.Equal(t, "session.events.PhaseStarted", msg.Subject)
	assert.Equal(t, e.Subject(), msg.Subject)
	assert.Equal(t, e.ID.String(), msg.Header.Get("Event-ID"))
	assert.Equal(t, "s1", msg.Header.Get("Session-ID"))

	var decoded events.Event
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, e.ID, decoded.ID)
}

func TestEventPublisher_HandleError(t *testing.T) {
	p := &EventPublisher{js: &fakePublisher{err: errors.New("timeout")}, config: DefaultConfig()}
	err := p.Handle(context.Background(), events.Event{Type: events.TypeTimerPaused})
	assert.ErrorContains(t, err, "publish to JetStream")
}
