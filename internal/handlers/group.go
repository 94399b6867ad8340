package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolconnect/internal/repositories"
	"schoolconnect/internal/telemetry"
)

// GroupHandler manages group endpoints.
type GroupHandler struct {
	groups repositories.GroupRepository
	audit  *telemetry.AuditEmitter
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groups repositories.GroupRepository, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{groups: groups, audit: audit}
}

// CreateGroup handles POST /api/groups. The caller is seeded as member
// and sole initial admin; invitees become plain members.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	username := usernameFromContext(c)

	var req struct {
		Name    string   `json:"name" binding:"required"`
		Members []string `json:"members"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), username, req.Name, req.Members)
	if err != nil {
		h.emitAudit(c, "ERROR", "group creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}

	h.emitAudit(c, "INFO", "group created")
	c.JSON(http.StatusCreated, gin.H{"group_id": group.ID, "group": group})
}

// ListGroups handles GET /api/groups, returning the caller's groups.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.groups.ListGroupsForUser(c.Request.Context(), usernameFromContext(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load groups"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *GroupHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), usernameFromContext(c))
}
