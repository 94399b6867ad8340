package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"schoolconnect/internal/session"
)

// Context keys set by AuthMiddleware for downstream handlers.
const (
	UsernameKey = "username"
	UserIDKey   = "userID"
	RoleKey     = "role"
	TokenKey    = "sessionToken"
)

// AuthMiddleware validates the Authorization header against the session
// store and injects the resolved account identity into the request.
func AuthMiddleware(sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		account, err := sessions.Resolve(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}

		c.Set(UsernameKey, account.Username)
		c.Set(UserIDKey, account.ID)
		c.Set(RoleKey, account.Role)
		c.Set(TokenKey, parts[1])
		c.Next()
	}
}
