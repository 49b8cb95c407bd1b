package notifier

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMemoryNotifier(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers events to the owner's subscribers", func(t *testing.T) {
		hub := NewMemoryNotifier()
		owner := uuid.New()

		events, cancel, err := hub.Subscribe(ctx, owner)
		assert.NoError(t, err)
		defer cancel()

		payload := ProgressPayload{VideoID: uuid.New(), Progress: 42, Message: "Compressing video..."}
		assert.NoError(t, hub.Publish(ctx, owner, EventProgress, payload))

		event := <-events
		assert.Equal(t, EventProgress, event.Name)

		var got ProgressPayload
		assert.NoError(t, json.Unmarshal(event.Payload, &got))
		assert.Equal(t, payload.VideoID, got.VideoID)
		assert.Equal(t, 42, got.Progress)
	})

	t.Run("does not leak events across owners", func(t *testing.T) {
		hub := NewMemoryNotifier()
		owner := uuid.New()
		stranger := uuid.New()

		events, cancel, err := hub.Subscribe(ctx, stranger)
		assert.NoError(t, err)
		defer cancel()

		assert.NoError(t, hub.Publish(ctx, owner, EventProgress, ProgressPayload{Progress: 10}))
		assert.Empty(t, events)
	})

	t.Run("publish without subscribers is a no-op", func(t *testing.T) {
		hub := NewMemoryNotifier()
		assert.NoError(t, hub.Publish(ctx, uuid.New(), EventError, ErrorPayload{Error: "boom"}))
	})

	t.Run("slow subscriber loses events instead of blocking publishers", func(t *testing.T) {
		hub := NewMemoryNotifier()
		owner := uuid.New()

		events, cancel, err := hub.Subscribe(ctx, owner)
		assert.NoError(t, err)

		for i := 0; i < subscriberBuffer*2; i++ {
			assert.NoError(t, hub.Publish(ctx, owner, EventProgress, ProgressPayload{Progress: i}))
		}

		cancel()
		received := 0
		for range events {
			received++
		}
		assert.Equal(t, subscriberBuffer, received)
	})

	t.Run("cancel is idempotent and concurrent-safe", func(t *testing.T) {
		hub := NewMemoryNotifier()
		owner := uuid.New()

		_, cancel, err := hub.Subscribe(ctx, owner)
		assert.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				cancel()
			}()
		}
		wg.Wait()

		assert.NoError(t, hub.Publish(ctx, owner, EventProgress, ProgressPayload{Progress: 1}))
	})
}
