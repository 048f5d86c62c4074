package reservation

import (
	"fmt"
	"strings"
)

// PastDateError rejects a toggle against a date strictly before today.
type PastDateError struct {
	Date string
}

func (e *PastDateError) Error() string {
	return fmt.Sprintf("%s is in the past and can no longer be changed", e.Date)
}

// SlotFullError rejects a claim when other users already hold the
// slot's full capacity. Holders carries the current occupants so the
// client can tell the user who got there first.
type SlotFullError struct {
	Date    string
	Holders []string
}

func (e *SlotFullError) Error() string {
	return fmt.Sprintf("%s is already reserved by %s", e.Date, strings.Join(e.Holders, ", "))
}
