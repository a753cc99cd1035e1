package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Pusher is the delivery collaborator boundary for realtime hints. Delivery
// is at-most-once and unordered relative to persisted state; clients must
// treat persisted records as the source of truth.
type Pusher interface {
	PublishToUser(ctx context.Context, userID, event string, payload any)
	Broadcast(ctx context.Context, event string, payload any)
}

// Broker publishes push events over Redis pub/sub. Each user has a dedicated
// channel; broadcast events go to a shared channel a socket gateway fans out.
type Broker struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
}

// NewBroker constructs the broker. A nil client disables push entirely.
func NewBroker(client *redis.Client, logger *zap.Logger) *Broker {
	return &Broker{client: client, logger: logger, prefix: "helpdesk"}
}

type envelope struct {
	Event     string    `json:"event"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// PublishToUser pushes an event to a single user's channel. Failures are
// logged and swallowed; push is a hint, never a durability guarantee.
func (b *Broker) PublishToUser(ctx context.Context, userID, event string, payload any) {
	b.publish(ctx, b.prefix+":user:"+userID, event, payload)
}

// Broadcast pushes an event to the shared channel.
func (b *Broker) Broadcast(ctx context.Context, event string, payload any) {
	b.publish(ctx, b.prefix+":events", event, payload)
}

func (b *Broker) publish(ctx context.Context, channel, event string, payload any) {
	if b == nil || b.client == nil {
		return
	}
	body, err := json.Marshal(envelope{Event: event, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		b.logger.Error("marshal push event", zap.String("event", event), zap.Error(err))
		return
	}
	if err := b.client.Publish(ctx, channel, body).Err(); err != nil {
		b.logger.Warn("publish push event",
			zap.String("channel", channel),
			zap.String("event", event),
			zap.Error(err))
	}
}
