package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SlotDate identifies one bookable day on the shared calendar.
// Its canonical string form is "{year}-{month}-{day}" with unpadded
// month and day (e.g. "2025-3-10"), which is also the storage key.
type SlotDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// ParseSlotDate parses a canonical date key. Zero-padded month/day
// values are accepted and normalized to the unpadded form.
func ParseSlotDate(key string) (SlotDate, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return SlotDate{}, fmt.Errorf("invalid slot date %q: expected year-month-day", key)
	}
	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return SlotDate{}, fmt.Errorf("invalid slot date %q: %w", key, err)
		}
		vals[i] = v
	}
	d := SlotDate{Year: vals[0], Month: vals[1], Day: vals[2]}
	if err := d.Validate(); err != nil {
		return SlotDate{}, err
	}
	return d, nil
}

// NewSlotDate builds a SlotDate from a time.Time in its location.
func NewSlotDate(t time.Time) SlotDate {
	return SlotDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Validate checks that the date names a real calendar day.
func (d SlotDate) Validate() error {
	if d.Year < 1 || d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return fmt.Errorf("invalid slot date %q", d.Key())
	}
	// time.Date normalizes overflow (e.g. Feb 30 -> Mar 2), so a
	// round-trip mismatch means the day does not exist in that month.
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	if t.Year() != d.Year || int(t.Month()) != d.Month || t.Day() != d.Day {
		return fmt.Errorf("invalid slot date %q", d.Key())
	}
	return nil
}

// Key returns the canonical unpadded storage key.
func (d SlotDate) Key() string {
	return fmt.Sprintf("%d-%d-%d", d.Year, d.Month, d.Day)
}

// Before reports whether d falls strictly before other by civil date.
func (d SlotDate) Before(other SlotDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// Slot is one date's occupancy record. Occupants are kept in claim
// order and are always distinct; a slot with no occupants may be
// physically absent from storage. Version increases by one on every
// committed change to the date and lets subscribers discard stale
// deliveries.
type Slot struct {
	Date      SlotDate  `bson:"-" json:"date"`
	Key       string    `bson:"date" json:"key"`
	Occupants []string  `bson:"occupants" json:"occupants"`
	Version   int64     `bson:"version" json:"version"`
	UpdatedAt time.Time `bson:"updatedAt" json:"-"`
}

// Holds reports whether the given user currently occupies the slot.
func (s *Slot) Holds(userID string) bool {
	for _, o := range s.Occupants {
		if o == userID {
			return true
		}
	}
	return false
}

// SlotEvent is a committed occupancy change as seen by subscribers.
type SlotEvent struct {
	Key       string   `json:"key"`
	Occupants []string `json:"occupants"`
	Version   int64    `json:"version"`
}

// CalendarSnapshot is the complete occupancy state at a point in time,
// delivered to every subscriber on connect and served on plain reads.
type CalendarSnapshot struct {
	Slots    map[string][]string `json:"slots"`
	Versions map[string]int64    `json:"versions"`
	Capacity int                 `json:"capacity"`
}
