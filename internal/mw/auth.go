package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vishnu-krishna/pump-master/internal/session"
)

// Context keys set by RequireAuth for downstream handlers.
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextRole     = "role"
)

// TokenValidator checks a dashboard session token.
type TokenValidator interface {
	ValidateToken(token string) (*session.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and exposes the
// caller's identity on the gin context.
func RequireAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}
