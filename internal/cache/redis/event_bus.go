package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nftbay/marketd/internal/domain"
)

// eventStream is the durable, ordered stream every event is appended to in
// addition to its pub/sub channel.
const eventStream = "st:events"

// defaultStreamMaxLen bounds the stream via XADD MAXLEN ~.
const defaultStreamMaxLen int64 = 10_000

// Envelope wraps a domain event for the wire: a unique id, the event kind,
// and the event payload itself.
type Envelope struct {
	ID      string       `json:"id"`
	Kind    string       `json:"kind"`
	Payload domain.Event `json:"payload"`
}

// EventBus implements domain.Emitter on Redis: each event is published to a
// kind-derived pub/sub channel for live consumers (the websocket hub) and
// appended to a capped stream for durable, ordered delivery (the archiver).
type EventBus struct {
	rdb    *redis.Client
	maxLen int64
	logger *slog.Logger
}

var _ domain.Emitter = (*EventBus)(nil)

// NewEventBus creates an EventBus backed by the given Client.
func NewEventBus(c *Client, logger *slog.Logger) *EventBus {
	return &EventBus{
		rdb:    c.Underlying(),
		maxLen: defaultStreamMaxLen,
		logger: logger.With(slog.String("component", "event_bus")),
	}
}

// Channel maps an event kind to its pub/sub channel: "listing.bought" goes
// to "mk:listing", "auction.bid" to "mk:auction", admin events to "mk:admin".
func Channel(kind string) string {
	prefix, _, _ := strings.Cut(kind, ".")
	return "mk:" + prefix
}

// Emit publishes each event. Emission happens after the operation has
// committed, so failures are logged and swallowed; the ledgers, not the bus,
// are the source of truth.
func (b *EventBus) Emit(ctx context.Context, events ...domain.Event) {
	for _, ev := range events {
		env := Envelope{
			ID:      uuid.NewString(),
			Kind:    ev.Kind(),
			Payload: ev,
		}
		payload, err := json.Marshal(env)
		if err != nil {
			b.logger.ErrorContext(ctx, "marshal event",
				slog.String("kind", ev.Kind()),
				slog.String("error", err.Error()),
			)
			continue
		}

		if err := b.rdb.Publish(ctx, Channel(ev.Kind()), payload).Err(); err != nil {
			b.logger.ErrorContext(ctx, "publish event",
				slog.String("kind", ev.Kind()),
				slog.String("error", err.Error()),
			)
		}

		args := &redis.XAddArgs{
			Stream: eventStream,
			MaxLen: b.maxLen,
			Approx: true,
			Values: map[string]interface{}{
				"payload": payload,
			},
		}
		if err := b.rdb.XAdd(ctx, args).Err(); err != nil {
			b.logger.ErrorContext(ctx, "stream append event",
				slog.String("kind", ev.Kind()),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Subscribe creates a pub/sub subscription on the given channel (patterns
// allowed) and returns a read-only channel of raw payloads. The subscription
// closes with the context.
func (b *EventBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	var pubsub *redis.PubSub
	if strings.ContainsAny(channel, "*?[") {
		pubsub = b.rdb.PSubscribe(ctx, channel)
	} else {
		pubsub = b.rdb.Subscribe(ctx, channel)
	}

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// StreamEntry is one durable stream record: the Redis stream id and the raw
// JSON envelope.
type StreamEntry struct {
	ID      string
	Payload []byte
}

// StreamRange reads event entries from the durable stream between the given
// stream ids ("-" and "+" for the full range, "(" prefix for an exclusive
// start).
func (b *EventBus) StreamRange(ctx context.Context, start, end string) ([]StreamEntry, error) {
	msgs, err := b.rdb.XRange(ctx, eventStream, start, end).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: stream range: %w", err)
	}
	out := make([]StreamEntry, 0, len(msgs))
	for _, m := range msgs {
		if p, ok := m.Values["payload"].(string); ok {
			out = append(out, StreamEntry{ID: m.ID, Payload: []byte(p)})
		}
	}
	return out, nil
}
