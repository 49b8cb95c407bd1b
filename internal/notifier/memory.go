package notifier

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 16

// MemoryNotifier is an in-process hub keyed by owner id. A subscriber that
// falls behind its buffer loses events rather than blocking a publisher.
type MemoryNotifier struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[chan Event]struct{}
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{
		subs: make(map[uuid.UUID]map[chan Event]struct{}),
	}
}

func (m *MemoryNotifier) Publish(ctx context.Context, ownerID uuid.UUID, event string, payload interface{}) error {
	ev, err := newEvent(event, payload)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for ch := range m.subs[ownerID] {
		select {
		case ch <- ev:
		default:
		}
	}

	return nil
}

func (m *MemoryNotifier) Subscribe(ctx context.Context, ownerID uuid.UUID) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuffer)

	m.mu.Lock()
	if m.subs[ownerID] == nil {
		m.subs[ownerID] = make(map[chan Event]struct{})
	}
	m.subs[ownerID][ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs[ownerID], ch)
			if len(m.subs[ownerID]) == 0 {
				delete(m.subs, ownerID)
			}
			m.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel, nil
}
