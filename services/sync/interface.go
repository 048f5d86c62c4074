package syncsvc

import (
	"context"
	"errors"

	"staycal/models"
)

// ErrSyncUnavailable reports that the propagation channel is down.
// Committed updates are never rolled back for it; delivery is retried
// and subscribers fall back to their last-known snapshot meanwhile.
var ErrSyncUnavailable = errors.New("sync channel unavailable")

// SyncChannel propagates committed slot changes to all connected
// observers. Updates for a single date reach every subscriber in
// commit order; out-of-order deliveries are discarded by version.
type SyncChannel interface {
	// Publish delivers a committed slot event to all subscribers,
	// local and remote. An ErrSyncUnavailable return means remote
	// delivery failed and should be retried; local subscribers have
	// still been notified.
	Publish(ctx context.Context, event models.SlotEvent) error
	// Subscribe registers a new observer. The caller must Close the
	// subscription when done.
	Subscribe() *Subscription
	// Forget drops the version floor kept for the given date-keys.
	// Called after their records are pruned so the floor map does not
	// outgrow the store it mirrors.
	Forget(keys ...string)
}

// Subscription is one observer's feed of committed slot events.
type Subscription struct {
	ID     string
	Events <-chan models.SlotEvent

	cancel func()
}

// Close unregisters the subscription and releases its channel.
func (s *Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}
