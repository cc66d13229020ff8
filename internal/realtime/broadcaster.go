package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/queueflow/queue-service/internal/events"
)

// Broadcaster fans queue events out over redis pub/sub, one channel per
// category. Delivery is fire-and-forget: errors are logged, never
// propagated back into the publishing transaction.
type Broadcaster struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
}

// NewBroadcaster constructs the broadcaster.
func NewBroadcaster(client *redis.Client, logger *zap.Logger, channelPrefix string) *Broadcaster {
	return &Broadcaster{client: client, logger: logger, prefix: channelPrefix}
}

// Register subscribes the broadcaster to every event kind.
func (b *Broadcaster) Register(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	for _, kind := range events.AllKinds {
		dispatcher.Subscribe(kind, b.handle)
	}
}

func (b *Broadcaster) handle(ctx context.Context, event events.Event) error {
	if b.client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Warn("realtime payload marshal failed", zap.Error(err))
		return nil
	}
	channel := b.prefix
	if event.CategoryID != "" {
		channel += "." + event.CategoryID
	}
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		b.logger.Warn("realtime publish failed",
			zap.String("channel", channel),
			zap.Error(err))
	}
	return nil
}
