package models_test

import (
	"testing"
	"time"

	"staycal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlotDate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    models.SlotDate
		wantErr bool
	}{
		{name: "unpadded", key: "2025-3-10", want: models.SlotDate{Year: 2025, Month: 3, Day: 10}},
		{name: "padded normalizes", key: "2025-03-09", want: models.SlotDate{Year: 2025, Month: 3, Day: 9}},
		{name: "single digit day", key: "2025-12-1", want: models.SlotDate{Year: 2025, Month: 12, Day: 1}},
		{name: "missing part", key: "2025-3", wantErr: true},
		{name: "not numeric", key: "2025-3-x", wantErr: true},
		{name: "month out of range", key: "2025-13-1", wantErr: true},
		{name: "day overflows month", key: "2025-2-30", wantErr: true},
		{name: "zero day", key: "2025-2-0", wantErr: true},
		{name: "empty", key: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := models.ParseSlotDate(tc.key)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSlotDateKeyIsUnpadded(t *testing.T) {
	d := models.SlotDate{Year: 2025, Month: 3, Day: 9}
	assert.Equal(t, "2025-3-9", d.Key())

	// Round-trip through the canonical form.
	parsed, err := models.ParseSlotDate(d.Key())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestSlotDateBefore(t *testing.T) {
	base := models.SlotDate{Year: 2025, Month: 3, Day: 10}

	assert.True(t, models.SlotDate{Year: 2024, Month: 12, Day: 31}.Before(base))
	assert.True(t, models.SlotDate{Year: 2025, Month: 2, Day: 28}.Before(base))
	assert.True(t, models.SlotDate{Year: 2025, Month: 3, Day: 9}.Before(base))
	assert.False(t, base.Before(base))
	assert.False(t, models.SlotDate{Year: 2025, Month: 3, Day: 11}.Before(base))
	assert.False(t, models.SlotDate{Year: 2026, Month: 1, Day: 1}.Before(base))
}

func TestNewSlotDate(t *testing.T) {
	d := models.NewSlotDate(time.Date(2025, time.March, 9, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, models.SlotDate{Year: 2025, Month: 3, Day: 9}, d)
}

func TestSlotHolds(t *testing.T) {
	s := models.Slot{Occupants: []string{"Kim", "Lee"}}
	assert.True(t, s.Holds("Kim"))
	assert.False(t, s.Holds("Park"))
}
