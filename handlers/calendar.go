package handlers

import (
	"errors"
	"net/http"

	"staycal/models"
	"staycal/services/reservation"
	"staycal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CalendarHandler exposes the reservation state machine over HTTP.
type CalendarHandler struct {
	Reservations reservation.ReservationService
}

// NewCalendarHandler creates a CalendarHandler.
func NewCalendarHandler(svc reservation.ReservationService) *CalendarHandler {
	return &CalendarHandler{Reservations: svc}
}

// ToggleRequest is the claim/release payload; the date is the
// canonical unpadded key, e.g. "2025-3-10".
type ToggleRequest struct {
	Date string `json:"date" binding:"required"`
}

// ToggleHandler handles POST /api/calendar/toggle. The authenticated
// user claims the date, or releases it if they already hold it.
func (h *CalendarHandler) ToggleHandler(c *gin.Context) {
	logger := utils.GetLogger()

	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := models.ParseSlotDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slot, err := h.Reservations.Toggle(c.Request.Context(), date, userID)
	if err != nil {
		var pastErr *reservation.PastDateError
		if errors.As(err, &pastErr) {
			utils.JSONErrorCode(c, http.StatusBadRequest, "pastDate", pastErr.Error())
			return
		}
		var fullErr *reservation.SlotFullError
		if errors.As(err, &fullErr) {
			c.JSON(http.StatusConflict, gin.H{
				"message": fullErr.Error(),
				"code":    "slotFull",
				"holders": fullErr.Holders,
			})
			return
		}
		logger.Error("Toggle failed", zap.String("date", req.Date), zap.String("userID", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reservation failed, please try again"})
		return
	}

	c.JSON(http.StatusOK, slot)
}

// GetCalendarHandler handles GET /api/calendar, returning the full
// occupancy snapshot with per-date versions.
func (h *CalendarHandler) GetCalendarHandler(c *gin.Context) {
	snap, err := h.Reservations.Calendar(c.Request.Context())
	if err != nil {
		utils.GetLogger().Error("Failed to load calendar", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load calendar"})
		return
	}
	c.JSON(http.StatusOK, snap)
}
