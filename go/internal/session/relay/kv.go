package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// keyValue is the part of jetstream.KeyValue the relay uses
type keyValue interface {
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Watch(ctx context.Context, keys string, opts ...jetstream.WatchOpt) (jetstream.KeyWatcher, error)
}

// EnsureBucket returns the snapshot bucket, creating it when missing. Only the
// newest value is kept.
func EnsureBucket(ctx context.Context, js jetstream.JetStream, cfg Config) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, cfg.Bucket)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, fmt.Errorf("get key-value bucket: %w", err)
	}

	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "Latest defense timer snapshot",
		History:     1,
		Storage:     jetstream.MemoryStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("create key-value bucket: %w", err)
	}
	log.Info().Str("bucket", cfg.Bucket).Msg("created key-value bucket")
	return kv, nil
}

// KVPublisher writes snapshots to the shared key
type KVPublisher struct {
	kv  keyValue
	key string
}

// NewKVPublisher creates a publisher writing to key in kv
func NewKVPublisher(kv jetstream.KeyValue, key string) *KVPublisher {
	return &KVPublisher{kv: kv, key: key}
}

// Put stores one snapshot
func (p *KVPublisher) Put(ctx context.Context, snap models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err := p.kv.Put(ctx, p.key, data); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

// Run mirrors updates until ctx is done or the channel closes. Failures are
// logged; the next snapshot overwrites the key anyway.
func (p *KVPublisher) Run(ctx context.Context, updates <-chan models.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := p.Put(ctx, snap); err != nil {
				log.Warn().
					Err(err).
					Uint64("version", snap.Version).
					Msg("failed to mirror snapshot")
			}
		}
	}
}

// KVWatcher follows the shared key
type KVWatcher struct {
	kv  keyValue
	key string
}

// NewKVWatcher creates a watcher of key in kv
func NewKVWatcher(kv jetstream.KeyValue, key string) *KVWatcher {
	return &KVWatcher{kv: kv, key: key}
}

// Watch calls handle with every snapshot written to the key, starting with the
// current value, until ctx is done.
func (w *KVWatcher) Watch(ctx context.Context, handle func(models.Snapshot)) error {
	watcher, err := w.kv.Watch(ctx, w.key)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.key, err)
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case entry, ok := <-watcher.Updates():
			if !ok {
				return nil
			}
			// A nil entry marks the end of the initial values
			if entry == nil {
				continue
			}
			snap, ok := decodeEntry(entry.Operation(), entry.Value())
			if !ok {
				continue
			}
			handle(snap)
		}
	}
}

func decodeEntry(op jetstream.KeyValueOp, value []byte) (models.Snapshot, bool) {
	if op != jetstream.KeyValuePut {
		return models.Snapshot{}, false
	}
	var snap models.Snapshot
	if err := json.Unmarshal(value, &snap); err != nil {
		log.Warn().Err(err).Msg("ignoring malformed snapshot")
		return models.Snapshot{}, false
	}
	return snap, true
}
