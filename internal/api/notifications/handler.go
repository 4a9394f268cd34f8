package notificationsapi

import (
	"context"
	"net/http"
	"strconv"

	"membership-app/internal/app/http/middleware"
	"membership-app/internal/domain/notifications"

	"github.com/gin-gonic/gin"
)

type Store interface {
	List(ctx context.Context, userID uint, limit int) ([]notifications.Notification, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, userID, id uint) (bool, error)
	MarkAllRead(ctx context.Context, userID uint) error
	Clear(ctx context.Context, userID uint) error
}

type Handler struct {
	Store Store
}

// GET /notifications
func (h *Handler) List(c *gin.Context) {
	userID := c.GetUint(middleware.KeyUserID)
	limit, _ := strconv.Atoi(c.Query("limit"))

	list, err := h.Store.List(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notifications"})
		return
	}
	unread, err := h.Store.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notifications"})
		return
	}
	if list == nil {
		list = []notifications.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list, "unread": unread})
}

// POST /notifications/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification id"})
		return
	}
	ok, err := h.Store.MarkRead(c.Request.Context(), c.GetUint(middleware.KeyUserID), uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /notifications/read-all
func (h *Handler) MarkAllRead(c *gin.Context) {
	if err := h.Store.MarkAllRead(c.Request.Context(), c.GetUint(middleware.KeyUserID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /notifications
func (h *Handler) Clear(c *gin.Context) {
	if err := h.Store.Clear(c.Request.Context(), c.GetUint(middleware.KeyUserID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear notifications"})
		return
	}
	c.Status(http.StatusNoContent)
}
