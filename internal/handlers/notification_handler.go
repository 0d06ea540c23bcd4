package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusuite/backend/internal/data"
)

type NotificationHandler struct {
	manager *data.Manager
}

func NewNotificationHandler(manager *data.Manager) *NotificationHandler {
	return &NotificationHandler{manager: manager}
}

// @Summary Own notification feed
// @Tags notifications
// @Success 200
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": dc.Store().Notifications.All()})
}

// @Summary Mark one notification read
// @Tags notifications
// @Success 200
// @Router /api/v1/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	if err := dc.MarkNotificationRead(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notification read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked read"})
}

// @Summary Mark all notifications read
// @Tags notifications
// @Success 200
// @Router /api/v1/notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	if err := dc.MarkAllNotificationsRead(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notifications read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked read"})
}
