package slotRepo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"staycal/models"
)

// MemorySlotRepo implements SlotRepository with an in-process map,
// for local single-process deployments. When a data file is set, the
// full occupancy record is loaded at startup and rewritten after every
// change.
type MemorySlotRepo struct {
	mu       sync.Mutex
	slots    map[string]*models.Slot
	dataFile string
}

// slotsFile is the on-disk layout: one record mapping date-keys to
// occupant sequences, plus the per-date versions so they survive a
// restart.
type slotsFile struct {
	Slots    map[string][]string `json:"slots"`
	Versions map[string]int64    `json:"versions"`
}

// NewMemorySlotRepo creates an in-memory SlotRepository. dataFile may
// be empty for a purely volatile store (tests).
func NewMemorySlotRepo(dataFile string) (*MemorySlotRepo, error) {
	repo := &MemorySlotRepo{
		slots:    make(map[string]*models.Slot),
		dataFile: dataFile,
	}
	if dataFile != "" {
		if err := repo.load(); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

func (r *MemorySlotRepo) load() error {
	data, err := os.ReadFile(r.dataFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read slot data file %s: %w", r.dataFile, err)
	}
	var f slotsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to decode slot data file %s: %w", r.dataFile, err)
	}
	for key, occ := range f.Slots {
		date, err := models.ParseSlotDate(key)
		if err != nil {
			return fmt.Errorf("slot data file %s holds bad key: %w", r.dataFile, err)
		}
		r.slots[key] = &models.Slot{
			Date:      date,
			Key:       key,
			Occupants: occ,
			Version:   f.Versions[key],
		}
	}
	return nil
}

// persist rewrites the data file. Called with the lock held so the
// file always reflects a committed state.
func (r *MemorySlotRepo) persist() error {
	if r.dataFile == "" {
		return nil
	}
	f := slotsFile{
		Slots:    make(map[string][]string, len(r.slots)),
		Versions: make(map[string]int64, len(r.slots)),
	}
	for key, s := range r.slots {
		f.Slots[key] = s.Occupants
		f.Versions[key] = s.Version
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode slot data: %w", err)
	}
	if err := os.WriteFile(r.dataFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write slot data file %s: %w", r.dataFile, err)
	}
	return nil
}

// Get retrieves one date's slot; absent entries come back empty with
// version zero.
func (r *MemorySlotRepo) Get(ctx context.Context, date models.SlotDate) (*models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(date), nil
}

func (r *MemorySlotRepo) snapshotLocked(date models.SlotDate) *models.Slot {
	s, ok := r.slots[date.Key()]
	if !ok {
		return &models.Slot{Date: date, Key: date.Key()}
	}
	return &models.Slot{
		Date:      s.Date,
		Key:       s.Key,
		Occupants: append([]string(nil), s.Occupants...),
		Version:   s.Version,
		UpdatedAt: s.UpdatedAt,
	}
}

// All returns every stored slot in date-key order.
func (r *MemorySlotRepo) All(ctx context.Context) ([]models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slots := make([]models.Slot, 0, len(r.slots))
	for _, s := range r.slots {
		slots = append(slots, *r.snapshotLocked(s.Date))
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Date.Before(slots[j].Date) })
	return slots, nil
}

// Update applies fn under the store lock, making the read-decide-write
// sequence a single critical section. The decision rule is pure and
// cheap, so holding the lock across it is fine.
func (r *MemorySlotRepo) Update(ctx context.Context, date models.SlotDate, fn UpdateFn) (*models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.snapshotLocked(date)
	next, err := fn(append([]string(nil), current.Occupants...))
	if err != nil {
		return nil, err
	}

	committed := &models.Slot{
		Date:      date,
		Key:       date.Key(),
		Occupants: next,
		Version:   current.Version + 1,
		UpdatedAt: time.Now(),
	}

	// Install, then persist; a failed write restores the prior entry so
	// a reported failure leaves no trace in live reads either.
	prev, hadPrev := r.slots[date.Key()]
	r.slots[date.Key()] = committed
	if err := r.persist(); err != nil {
		if hadPrev {
			r.slots[date.Key()] = prev
		} else {
			delete(r.slots, date.Key())
		}
		return nil, err
	}
	return r.snapshotLocked(date), nil
}

// PruneEmptyBefore drops empty entries for dates that can no longer
// change.
func (r *MemorySlotRepo) PruneEmptyBefore(ctx context.Context, date models.SlotDate) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pruned []string
	for key, s := range r.slots {
		if len(s.Occupants) == 0 && s.Date.Before(date) {
			delete(r.slots, key)
			pruned = append(pruned, key)
		}
	}
	if len(pruned) > 0 {
		if err := r.persist(); err != nil {
			return pruned, err
		}
	}
	return pruned, nil
}
