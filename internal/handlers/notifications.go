package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolconnect/internal/models"
	"schoolconnect/internal/watch"
)

// NotificationHandler exposes the watcher poll endpoint.
type NotificationHandler struct {
	tracker *watch.Tracker
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(tracker *watch.Tracker) *NotificationHandler {
	return &NotificationHandler{tracker: tracker}
}

// Poll handles GET /api/notifications: everything that became visible
// to the caller since their previous poll. The first poll establishes
// the baseline and returns an empty list.
func (h *NotificationHandler) Poll(c *gin.Context) {
	notifs, err := h.tracker.Poll(c.Request.Context(), usernameFromContext(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not poll notifications"})
		return
	}
	if notifs == nil {
		notifs = []models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifs})
}
