package syncsvc

import (
	"context"
	"sync"

	"staycal/models"
	"staycal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber
// that falls this far behind starts losing events and must re-read the
// snapshot; versions make the gap detectable.
const subscriberBuffer = 16

// Hub is the in-process fan-out at the heart of the sync channel. It
// is a complete SyncChannel on its own for single-process deployments;
// the redis bridge layers cross-instance delivery on top of it.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]chan models.SlotEvent
	// lastVersion tracks the newest version seen per date so stale or
	// duplicate deliveries (redis redelivery, retry overlap) are
	// dropped before fan-out.
	lastVersion map[string]int64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]chan models.SlotEvent),
		lastVersion: make(map[string]int64),
	}
}

// Subscribe registers a new observer.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan models.SlotEvent, subscriberBuffer)
	id := uuid.New().String()

	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()

	return &Subscription{
		ID:     id,
		Events: ch,
		cancel: func() {
			h.mu.Lock()
			if c, ok := h.subscribers[id]; ok {
				delete(h.subscribers, id)
				close(c)
			}
			h.mu.Unlock()
		},
	}
}

// Publish fans the event out to all subscribers. Events not strictly
// newer than the last seen version for their date are discarded, which
// keeps per-date delivery in commit order even when the transport
// reorders or duplicates.
func (h *Hub) Publish(ctx context.Context, event models.SlotEvent) error {
	h.mu.Lock()
	if event.Version <= h.lastVersion[event.Key] {
		h.mu.Unlock()
		return nil
	}
	h.lastVersion[event.Key] = event.Version

	for id, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			// Slow subscriber; it will catch up from a fresh snapshot.
			utils.GetLogger().Warn("Dropping slot event for slow subscriber",
				zap.String("subscriber", id), zap.String("date", event.Key))
		}
	}
	h.mu.Unlock()
	return nil
}

// Forget drops the version floors for pruned date-keys. Only past
// dates get pruned and those can no longer be toggled, so forgetting
// them never reopens the door to a stale delivery.
func (h *Hub) Forget(keys ...string) {
	h.mu.Lock()
	for _, key := range keys {
		delete(h.lastVersion, key)
	}
	h.mu.Unlock()
}
