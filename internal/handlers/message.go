package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"schoolconnect/internal/middleware"
	"schoolconnect/internal/models"
	"schoolconnect/internal/repositories"
	"schoolconnect/internal/scope"
	"schoolconnect/internal/telemetry"
	"schoolconnect/internal/watch"
	"schoolconnect/internal/ws"
)

// MessageHandler manages the message endpoints.
type MessageHandler struct {
	messages repositories.MessageRepository
	groups   repositories.GroupRepository
	accounts repositories.AccountRepository
	hub      *ws.Hub
	audit    *telemetry.AuditEmitter
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(messages repositories.MessageRepository, groups repositories.GroupRepository, accounts repositories.AccountRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		groups:   groups,
		accounts: accounts,
		hub:      hub,
		audit:    audit,
	}
}

// contextFromQuery reads the addressing of the request: group_id wins,
// then recipient, otherwise the global channel.
func contextFromQuery(c *gin.Context) (scope.Context, bool) {
	if raw := c.Query("group_id"); raw != "" {
		groupID, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
			return scope.Context{}, false
		}
		return scope.Group(groupID), true
	}
	if peer := c.Query("recipient"); peer != "" {
		return scope.Private(peer), true
	}
	return scope.Global(), true
}

// ListMessages handles GET /api/messages. The conversational context
// comes from query parameters, the trash/category tab from `selection`.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	convo, ok := contextFromQuery(c)
	if !ok {
		return
	}

	viewer := usernameFromContext(c)
	if convo.Kind == scope.KindGroup {
		if _, err := h.groups.GetGroup(c.Request.Context(), convo.GroupID); err != nil {
			if errors.Is(err, repositories.ErrGroupNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load group"})
			return
		}
		member, err := h.groups.IsMember(c.Request.Context(), convo.GroupID, viewer)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
			return
		}
		if !member {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a group member"})
			return
		}
	}

	msgs, err := h.messages.ListConversation(c.Request.Context(), convo, viewer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load messages"})
		return
	}

	selection := scope.ParseSelection(c.Query("selection"))
	visible := scope.Filter(msgs, viewer, selection)

	c.JSON(http.StatusOK, gin.H{"messages": redact(visible)})
}

// PostMessage handles POST /api/messages.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	var req struct {
		Text      string  `json:"text" binding:"required"`
		Status    string  `json:"status"`
		Recipient *string `json:"recipient"`
		GroupID   *int    `json:"group_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Recipient != nil && req.GroupID != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message cannot address both a recipient and a group"})
		return
	}

	status := models.StatusSent
	if req.Status != "" {
		status = models.MessageStatus(req.Status)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown message status"})
			return
		}
	}

	sender := usernameFromContext(c)
	switch {
	case req.GroupID != nil:
		member, err := h.groups.IsMember(c.Request.Context(), *req.GroupID, sender)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
			return
		}
		if !member {
			h.emitAudit(c, "ERROR", "group post rejected")
			c.JSON(http.StatusForbidden, gin.H{"error": "not a group member"})
			return
		}
	case req.Recipient != nil:
		if _, err := h.accounts.FindByUsername(c.Request.Context(), *req.Recipient); err != nil {
			if errors.Is(err, repositories.ErrAccountNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "recipient not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "recipient lookup failed"})
			return
		}
	default:
		if c.GetString(middleware.RoleKey) != models.RoleAdmin {
			h.emitAudit(c, "ERROR", "global post rejected")
			c.JSON(http.StatusForbidden, gin.H{"error": "only admins may post to the global channel"})
			return
		}
	}

	var senderID *int
	if id := c.GetInt(middleware.UserIDKey); id != 0 {
		senderID = &id
	}

	msg, err := h.messages.CreateMessage(c.Request.Context(), repositories.NewMessage{
		Sender:    sender,
		SenderID:  senderID,
		Body:      req.Text,
		Status:    status,
		Recipient: req.Recipient,
		GroupID:   req.GroupID,
	})
	if err != nil {
		h.emitAudit(c, "ERROR", "message store failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store message"})
		return
	}

	h.pushNotification(c, msg)
	h.emitAudit(c, "INFO", "message sent")
	c.JSON(http.StatusCreated, msg)
}

// PatchMessage handles PATCH /api/messages/:id. A soft delete and field
// replacements may arrive in the same request; the repository applies
// both in one transaction.
func (h *MessageHandler) PatchMessage(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req struct {
		DeletedForUser string  `json:"deleted_for_user"`
		Starred        *bool   `json:"starred"`
		Status         *string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := repositories.MessagePatch{
		DeletedForUser: req.DeletedForUser,
		Starred:        req.Starred,
	}
	if req.Status != nil {
		status := models.MessageStatus(*req.Status)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown message status"})
			return
		}
		patch.Status = &status
	}

	msg, err := h.messages.PatchMessage(c.Request.Context(), messageID, patch)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update message"})
		return
	}

	h.emitAudit(c, "INFO", "message updated")
	c.JSON(http.StatusOK, redactOne(msg))
}

// pushNotification fans a freshly sent message out over the push
// channel. Drafts never leave the author.
func (h *MessageHandler) pushNotification(c *gin.Context, msg models.Message) {
	if h.hub == nil || msg.Status != models.StatusSent {
		return
	}

	n := models.Notification{
		Kind:      scope.Classify(msg),
		Sender:    msg.Sender,
		Preview:   watch.Preview(msg.Body),
		MessageID: msg.ID,
	}

	switch {
	case msg.GroupID != nil:
		n.GroupID = *msg.GroupID
		members, err := h.groups.ListMembers(c.Request.Context(), *msg.GroupID)
		if err != nil {
			return
		}
		for _, handle := range members {
			if handle == msg.Sender {
				continue
			}
			h.hub.Notify(handle, n)
		}
	case msg.Recipient != nil:
		h.hub.Notify(*msg.Recipient, n)
	default:
		h.hub.NotifyAll(n, msg.Sender)
	}
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), usernameFromContext(c))
}

func redactOne(msg models.Message) models.Message {
	msg.Body = msg.DisplayBody()
	return msg
}

func redact(msgs []models.Message) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, redactOne(msg))
	}
	return out
}
