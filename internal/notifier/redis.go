package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisNotifier fans events out over redis pub/sub so subscribers on other
// instances still receive them. Pub/sub matches the contract exactly:
// best-effort, nothing queued for offline subscribers.
type RedisNotifier struct {
	client *redis.Client
	logger *log.Logger
}

func NewRedisNotifier(client *redis.Client, logger *log.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, logger: logger}
}

func channelFor(ownerID uuid.UUID) string {
	return "events:" + ownerID.String()
}

func (r *RedisNotifier) Publish(ctx context.Context, ownerID uuid.UUID, event string, payload interface{}) error {
	ev, err := newEvent(event, payload)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err := r.client.Publish(ctx, channelFor(ownerID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func (r *RedisNotifier) Subscribe(ctx context.Context, ownerID uuid.UUID) (<-chan Event, func(), error) {
	pubsub := r.client.Subscribe(ctx, channelFor(ownerID))

	// Force the subscription onto the wire before the caller relies on it.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := make(chan Event, subscriberBuffer)
	go func() {
		defer close(ch)
		for msg := range pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.logger.Println("Error decoding pubsub event:", err)
				continue
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}()

	cancel := func() {
		if err := pubsub.Close(); err != nil {
			r.logger.Println("Error closing pubsub subscription:", err)
		}
	}

	return ch, cancel, nil
}
