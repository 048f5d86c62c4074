package handlers

import (
	"io"
	"net/http"
	"time"

	"staycal/services/reservation"
	syncsvc "staycal/services/sync"
	"staycal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// keepAliveInterval paces SSE comment pings so proxies keep the
// connection open through quiet periods.
const keepAliveInterval = 30 * time.Second

// StreamHandler serves the live calendar feed: a full snapshot on
// connect, then one event per committed slot change.
type StreamHandler struct {
	Reservations reservation.ReservationService
	Sync         syncsvc.SyncChannel
}

// NewStreamHandler creates a StreamHandler.
func NewStreamHandler(svc reservation.ReservationService, sync syncsvc.SyncChannel) *StreamHandler {
	return &StreamHandler{Reservations: svc, Sync: sync}
}

// CalendarStreamHandler handles GET /api/calendar/stream as
// server-sent events. Subscription is registered before the snapshot
// read so no commit can fall between the two; anything the snapshot
// already covers is dropped by version.
func (h *StreamHandler) CalendarStreamHandler(c *gin.Context) {
	sub := h.Sync.Subscribe()
	defer sub.Close()

	snap, err := h.Reservations.Calendar(c.Request.Context())
	if err != nil {
		utils.GetLogger().Error("Failed to load calendar for stream", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load calendar"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	// Highest version delivered to this client per date; updates must
	// be strictly newer to go out, so a stale delivery can never be
	// applied over a newer snapshot.
	seen := make(map[string]int64, len(snap.Versions))
	for key, v := range snap.Versions {
		seen[key] = v
	}

	c.SSEvent("snapshot", snap)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return false
			}
			if event.Version <= seen[event.Key] {
				return true
			}
			seen[event.Key] = event.Version
			c.SSEvent("update", event)
			return true
		case <-time.After(keepAliveInterval):
			c.SSEvent("ping", time.Now().Unix())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
