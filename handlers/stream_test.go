package handlers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	identityRepo "staycal/database/repository/identity"
	slotRepo "staycal/database/repository/slot"
	"staycal/handlers"
	"staycal/models"
	"staycal/routes"
	"staycal/services/identity"
	"staycal/services/reservation"
	syncsvc "staycal/services/sync"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStreamEnv(t *testing.T) (*gin.Engine, slotRepo.SlotRepository, *syncsvc.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	slots, err := slotRepo.NewMemorySlotRepo("")
	require.NoError(t, err)
	users, err := identityRepo.NewMemoryUserRepo("")
	require.NoError(t, err)

	hub := syncsvc.NewHub()
	reservationService := &reservation.DefaultReservationService{
		Repo:     slots,
		Sync:     hub,
		Capacity: 1,
		Now:      func() time.Time { return fixedNow },
	}

	hb := &handlers.HandlerBundle{
		Auth:     handlers.NewAuthHandler(&identity.DefaultIdentityService{Repo: users}),
		Calendar: handlers.NewCalendarHandler(reservationService),
		Stream:   handlers.NewStreamHandler(reservationService, hub),
	}

	router := gin.New()
	routes.RegisterRoutes(router, hb)
	return router, slots, hub
}

// readSSEvent reads one server-sent event off the wire, returning its
// event name and data payload.
func readSSEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err, "stream ended mid-event")
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "" && name != "":
			return name, data
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

func TestCalendarStreamSnapshotThenNewerUpdatesOnly(t *testing.T) {
	router, slots, hub := setupStreamEnv(t)
	token := registerUser(t, router, "Kim")

	// Seed occupancy at the store level so the hub has no version
	// floor for the date: the snapshot alone must protect the client.
	date, err := models.ParseSlotDate("2025-3-10")
	require.NoError(t, err)
	_, err = slots.Update(context.Background(), date, func(occ []string) ([]string, error) {
		return append(occ, "Kim"), nil
	})
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/calendar/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)

	// The first event is always the full snapshot; receiving it also
	// proves the subscription was registered before the state read.
	name, data := readSSEvent(t, reader)
	require.Equal(t, "snapshot", name)
	var snap struct {
		Slots    map[string][]string `json:"slots"`
		Versions map[string]int64    `json:"versions"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &snap))
	assert.Equal(t, []string{"Kim"}, snap.Slots["2025-3-10"])
	assert.Equal(t, int64(1), snap.Versions["2025-3-10"])

	// A redelivery of state the snapshot already covers must not go
	// out; the strictly newer change must.
	require.NoError(t, hub.Publish(ctx, models.SlotEvent{Key: "2025-3-10", Occupants: []string{"Kim"}, Version: 1}))
	require.NoError(t, hub.Publish(ctx, models.SlotEvent{Key: "2025-3-10", Occupants: nil, Version: 2}))

	name, data = readSSEvent(t, reader)
	require.Equal(t, "update", name)
	var event models.SlotEvent
	require.NoError(t, json.Unmarshal([]byte(data), &event))
	assert.Equal(t, "2025-3-10", event.Key)
	assert.Equal(t, int64(2), event.Version)
	assert.Empty(t, event.Occupants)
}

func TestCalendarStreamRequiresAuth(t *testing.T) {
	router, _, _ := setupStreamEnv(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/calendar/stream", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
