package propagate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// DefaultSubject is the well-known shared channel name.
	DefaultSubject = "sectiond.content.update"
	// pendingBucket mirrors the last published event for the startup
	// pending-update check.
	pendingBucket = "sectiond-updates"
	pendingKey    = "latest"
)

// NATSTransport is the shared-channel transport observed by every
// subscribed context, regardless of how it was opened.
type NATSTransport struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	kv      jetstream.KeyValue
	subject string
}

// NewNATSTransport connects to the given NATS URL and prepares the pending
// update bucket.
func NewNATSTransport(url, subject string) (*NATSTransport, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	t := &NATSTransport{conn: conn, js: js, subject: subject}
	if err := t.initPendingBucket(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize pending bucket: %w", err)
	}

	slog.Info("propagation transport connected", "url", url, "subject", subject)
	return t, nil
}

func (t *NATSTransport) initPendingBucket() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := t.js.KeyValue(ctx, pendingBucket)
	if err == nil {
		t.kv = kv
		return nil
	}

	kv, err = t.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      pendingBucket,
		Description: "Last content update event for late subscribers",
		History:     1,
	})
	if err != nil {
		return err
	}
	t.kv = kv
	return nil
}

func (t *NATSTransport) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := t.conn.Publish(t.subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	// Mirror into the pending bucket so contexts that attach later can
	// replay it. Best effort: live delivery already succeeded.
	if _, err := t.kv.Put(ctx, pendingKey, data); err != nil {
		slog.Warn("mirror event to pending bucket failed", "error", err)
	}

	slog.Debug("published content update", "page", e.Page, "event_id", e.ID)
	return nil
}

func (t *NATSTransport) Subscribe(handler func(Event)) (func(), error) {
	sub, err := t.conn.Subscribe(t.subject, func(msg *nats.Msg) {
		var e Event
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			slog.Warn("dropping undecodable update event", "error", err)
			return
		}
		handler(e)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", t.subject, err)
	}

	return func() { _ = sub.Unsubscribe() }, nil
}

func (t *NATSTransport) Pending(ctx context.Context) (*Event, error) {
	entry, err := t.kv.Get(ctx, pendingKey)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read pending event: %w", err)
	}

	var e Event
	if err := json.Unmarshal(entry.Value(), &e); err != nil {
		return nil, fmt.Errorf("decode pending event: %w", err)
	}
	return &e, nil
}

func (t *NATSTransport) Close() error {
	t.conn.Close()
	return nil
}
