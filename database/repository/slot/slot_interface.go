package slotRepo

import (
	"context"
	"errors"

	"staycal/models"
)

// ErrConflict reports that an atomic update lost a race with a
// concurrent writer on the same date. It is retried inside Update and
// only escapes after the retry budget is exhausted.
var ErrConflict = errors.New("slot update conflict")

// UpdateFn is the pure decision rule applied to the occupants read at
// the start of an update. Returning an error aborts the update with no
// mutation. The slice passed in is a private copy and may be modified.
type UpdateFn func(occupants []string) ([]string, error)

// SlotRepository is the authoritative mapping from calendar dates to
// occupant sequences.
type SlotRepository interface {
	// Update applies fn to the current occupants of date as a single
	// atomic read-modify-write with respect to all other callers and
	// returns the committed slot. A detected race is retried against
	// freshly read state before it is ever surfaced.
	Update(ctx context.Context, date models.SlotDate, fn UpdateFn) (*models.Slot, error)
	// Get retrieves one date's slot; an absent record is returned as
	// an empty slot with version zero, never as an error.
	Get(ctx context.Context, date models.SlotDate) (*models.Slot, error)
	// All returns every stored slot, for subscriber bootstrap.
	All(ctx context.Context) ([]models.Slot, error)
	// PruneEmptyBefore removes physical records that hold no occupants
	// and whose date falls strictly before the given date, returning
	// the removed date-keys so downstream state keyed on them can be
	// cleared too.
	PruneEmptyBefore(ctx context.Context, date models.SlotDate) ([]string, error)
}
