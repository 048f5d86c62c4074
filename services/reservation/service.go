package reservation

import (
	"context"

	"staycal/models"
	"staycal/utils"

	"go.uber.org/zap"
)

// Toggle applies the three-branch decision rule against the occupancy
// read at the start of the operation:
//
//  1. a date strictly before today is rejected outright;
//  2. a user already present is removed — cancellation always
//     succeeds, regardless of capacity;
//  3. a full slot rejects new claims;
//  4. otherwise the user is appended in claim order.
//
// The rule runs as the decision function of the store's atomic update,
// so concurrent toggles on the same date are serialized there and
// re-evaluated on conflict rather than lost.
func (s *DefaultReservationService) Toggle(ctx context.Context, date models.SlotDate, userID string) (*models.Slot, error) {
	if err := date.Validate(); err != nil {
		return nil, err
	}
	today := models.NewSlotDate(s.now())
	if date.Before(today) {
		return nil, &PastDateError{Date: date.Key()}
	}

	decide := func(occupants []string) ([]string, error) {
		for i, o := range occupants {
			if o == userID {
				return append(occupants[:i], occupants[i+1:]...), nil
			}
		}
		if len(occupants) >= s.Capacity {
			return nil, &SlotFullError{Date: date.Key(), Holders: append([]string(nil), occupants...)}
		}
		return append(occupants, userID), nil
	}

	slot, err := s.Repo.Update(ctx, date, decide)
	if err != nil {
		return nil, err
	}

	// The update is committed at this point; propagation is
	// best-effort and must not fail the toggle or hold it up.
	s.publish(ctx, slot)
	return slot, nil
}

func (s *DefaultReservationService) publish(ctx context.Context, slot *models.Slot) {
	if s.Sync == nil {
		return
	}
	event := models.SlotEvent{
		Key:       slot.Key,
		Occupants: slot.Occupants,
		Version:   slot.Version,
	}
	if err := s.Sync.Publish(ctx, event); err != nil {
		logger := utils.GetLogger()
		logger.Warn("Slot publish failed, scheduling retry",
			zap.String("date", slot.Key), zap.Int64("version", slot.Version), zap.Error(err))
		if s.Retry != nil {
			if err := s.Retry.EnqueueSlotPublish(event); err != nil {
				logger.Error("Failed to enqueue slot publish retry",
					zap.String("date", slot.Key), zap.Error(err))
			}
		}
	}
}

// Calendar returns the full occupancy snapshot for initial renders and
// subscriber bootstrap.
func (s *DefaultReservationService) Calendar(ctx context.Context) (*models.CalendarSnapshot, error) {
	slots, err := s.Repo.All(ctx)
	if err != nil {
		return nil, err
	}
	snap := &models.CalendarSnapshot{
		Slots:    make(map[string][]string, len(slots)),
		Versions: make(map[string]int64, len(slots)),
		Capacity: s.Capacity,
	}
	for _, slot := range slots {
		if len(slot.Occupants) > 0 {
			snap.Slots[slot.Key] = slot.Occupants
		}
		snap.Versions[slot.Key] = slot.Version
	}
	return snap, nil
}
