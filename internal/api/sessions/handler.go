package sessionsapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"membership-app/internal/app/http/middleware"
	"membership-app/internal/domain/booking"
	"membership-app/internal/infra/logging"
	"membership-app/internal/infra/queue"

	"github.com/gin-gonic/gin"
)

type Slots interface {
	ListUpcoming(ctx context.Context, now time.Time, onlyOpen bool) ([]booking.ExpertSlot, error)
	ListForUser(ctx context.Context, userID uint) ([]booking.ExpertSlot, error)
	Book(ctx context.Context, slotID, userID uint, now time.Time) (booking.ExpertSlot, error)
	Cancel(ctx context.Context, slotID, userID uint, now time.Time) error
}

type Handler struct {
	Slots  Slots
	Events queue.EventPublisher
	Now    func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

type SlotDTO struct {
	ID          uint      `json:"id"`
	ExpertName  string    `json:"expert_name"`
	Topic       string    `json:"topic"`
	StartsAt    time.Time `json:"starts_at"`
	DurationMin int       `json:"duration_min"`
	Available   bool      `json:"available"`
	BookedByMe  bool      `json:"booked_by_me"`
}

func toDTO(s booking.ExpertSlot, userID uint) SlotDTO {
	return SlotDTO{
		ID:          s.ID,
		ExpertName:  s.ExpertName,
		Topic:       s.Topic,
		StartsAt:    s.StartsAt,
		DurationMin: s.DurationMin,
		Available:   s.Available(),
		BookedByMe:  s.BookedByUserID != nil && *s.BookedByUserID == userID,
	}
}

// GET /sessions/slots?open=true
func (h *Handler) ListSlots(c *gin.Context) {
	userID := c.GetUint(middleware.KeyUserID)
	onlyOpen := c.Query("open") == "true"

	slots, err := h.Slots.ListUpcoming(c.Request.Context(), h.now(), onlyOpen)
	if err != nil {
		logging.Log.Error().Err(err).Msg("list expert slots failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sessions"})
		return
	}

	out := make([]SlotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, toDTO(s, userID))
	}
	c.JSON(http.StatusOK, gin.H{"slots": out})
}

// GET /sessions/mine
func (h *Handler) MySessions(c *gin.Context) {
	userID := c.GetUint(middleware.KeyUserID)
	slots, err := h.Slots.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sessions"})
		return
	}
	out := make([]SlotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, toDTO(s, userID))
	}
	c.JSON(http.StatusOK, gin.H{"slots": out})
}

// POST /sessions/slots/:id/book
func (h *Handler) Book(c *gin.Context) {
	slotID, ok := parseID(c)
	if !ok {
		return
	}
	userID := c.GetUint(middleware.KeyUserID)
	now := h.now()

	slot, err := h.Slots.Book(c.Request.Context(), slotID, userID, now)
	if err != nil {
		writeBookingError(c, err)
		return
	}

	logging.Log.Info().Uint("slot_id", slot.ID).Uint("user_id", userID).Str("expert", slot.ExpertName).Msg("slot booked")

	if h.Events != nil {
		ev := queue.SessionBookedEvent{
			SlotID:      slot.ID,
			UserID:      userID,
			ExpertName:  slot.ExpertName,
			Topic:       slot.Topic,
			StartsAt:    slot.StartsAt.UTC().Format(time.RFC3339),
			DurationMin: slot.DurationMin,
			BookedAt:    now.UTC().Format(time.RFC3339),
		}
		if err := h.Events.Publish(c.Request.Context(), queue.SessionsBookedQueue, ev); err != nil {
			// the booking stands; only the notification is lost
			logging.Log.Error().Err(err).Uint("slot_id", slot.ID).Msg("publish session booked failed")
		}
	}

	c.JSON(http.StatusCreated, gin.H{"slot": toDTO(slot, userID)})
}

// DELETE /sessions/slots/:id/book
func (h *Handler) Cancel(c *gin.Context) {
	slotID, ok := parseID(c)
	if !ok {
		return
	}
	userID := c.GetUint(middleware.KeyUserID)
	if err := h.Slots.Cancel(c.Request.Context(), slotID, userID, h.now()); err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled"})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot id"})
		return 0, false
	}
	return uint(id), true
}

func writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrSlotNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Slot not found"})
	case errors.Is(err, booking.ErrSlotTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "This slot has already been booked"})
	case errors.Is(err, booking.ErrSlotPast):
		c.JSON(http.StatusConflict, gin.H{"error": "This slot has already started"})
	case errors.Is(err, booking.ErrNotBooker):
		c.JSON(http.StatusForbidden, gin.H{"error": "You have not booked this slot"})
	default:
		logging.Log.Error().Err(err).Msg("booking failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update booking"})
	}
}
