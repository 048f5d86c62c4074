package reservation

import (
	"context"
	"time"

	slotRepo "staycal/database/repository/slot"
	"staycal/models"
	syncsvc "staycal/services/sync"
)

// ReservationService is the reservation state machine. Claim and
// cancel share the single Toggle entry point so the idempotence of the
// claim/cancel pair is structural, not a calling convention.
type ReservationService interface {
	// Toggle claims the date for the user, or releases it if the user
	// already holds it, and returns the committed slot. Rejections
	// (past date, full slot) are typed errors and leave occupancy
	// untouched.
	Toggle(ctx context.Context, date models.SlotDate, userID string) (*models.Slot, error)
	// Calendar returns the complete current occupancy state.
	Calendar(ctx context.Context) (*models.CalendarSnapshot, error)
}

// PublishRetryQueue re-delivers committed slot events whose first
// publish failed. Implemented by the async task client; nil disables
// retries.
type PublishRetryQueue interface {
	EnqueueSlotPublish(event models.SlotEvent) error
}

// DefaultReservationService is the production implementation.
type DefaultReservationService struct {
	Repo     slotRepo.SlotRepository
	Sync     syncsvc.SyncChannel
	Retry    PublishRetryQueue
	Capacity int

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

func (s *DefaultReservationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
