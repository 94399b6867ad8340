package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolconnect/internal/middleware"
	"schoolconnect/internal/models"
	"schoolconnect/internal/repositories"
	"schoolconnect/internal/session"
	"schoolconnect/internal/telemetry"
	"schoolconnect/internal/watch"
)

// AuthHandler manages registration, login, logout and the contact list.
type AuthHandler struct {
	accounts repositories.AccountRepository
	sessions session.Store
	tracker  *watch.Tracker
	audit    *telemetry.AuditEmitter
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(accounts repositories.AccountRepository, sessions session.Store, tracker *watch.Tracker, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		tracker:  tracker,
		audit:    audit,
	}
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.accounts.CreateAccount(c.Request.Context(), req.Username, req.Password, models.RoleMember)
	if err != nil {
		if errors.Is(err, repositories.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "that username is already in use, try another one"})
			return
		}
		h.emitAudit(c, "ERROR", "registration failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong while registering"})
		return
	}

	h.emitAudit(c, "INFO", "account registered")
	c.JSON(http.StatusCreated, gin.H{"message": "account registered", "user": account})
}

// Login handles POST /api/login. A successful login creates a session
// and returns its token alongside the account.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.accounts.FindByCredentials(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong username or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong while logging in"})
		return
	}

	sess, err := h.sessions.Create(c.Request.Context(), account.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}

	h.emitAudit(c, "INFO", "login")
	c.JSON(http.StatusOK, gin.H{"token": sess.Token, "user": account})
}

// Logout handles POST /api/logout, destroying the caller's session.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString(middleware.TokenKey)
	if err := h.sessions.Destroy(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not destroy session"})
		return
	}
	if h.tracker != nil {
		h.tracker.Forget(usernameFromContext(c))
	}

	h.emitAudit(c, "INFO", "logout")
	c.Status(http.StatusNoContent)
}

// ListUsers handles GET /api/users: handle and contact address only.
func (h *AuthHandler) ListUsers(c *gin.Context) {
	accounts, err := h.accounts.ListAccounts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load users"})
		return
	}

	type userResponse struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	users := make([]userResponse, 0, len(accounts))
	for _, a := range accounts {
		users = append(users, userResponse{Username: a.Username, Email: a.Email})
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *AuthHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), usernameFromContext(c))
}
