// Package notifier delivers live processing events to the uploader.
// Delivery is best-effort with no queuing for offline subscribers.
package notifier

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/reelpoint/reelpoint-server/internal/models"
)

const (
	EventProgress = "processing:progress"
	EventError    = "processing:error"
)

type Event struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type ProgressPayload struct {
	VideoID  uuid.UUID          `json:"videoId"`
	Progress int                `json:"progress"`
	Message  string             `json:"message"`
	Status   models.VideoStatus `json:"status"`
}

type ErrorPayload struct {
	VideoID uuid.UUID `json:"videoId"`
	Error   string    `json:"error"`
}

// Notifier is injected into the pipeline and the events endpoint at
// construction; nothing resolves it from ambient state.
type Notifier interface {
	Publish(ctx context.Context, ownerID uuid.UUID, event string, payload interface{}) error
	// Subscribe returns a channel of events for ownerID and a cancel func.
	// The channel is closed when the subscription ends.
	Subscribe(ctx context.Context, ownerID uuid.UUID) (<-chan Event, func(), error)
}

func newEvent(name string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Name: name, Payload: raw}, nil
}
