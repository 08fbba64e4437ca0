package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "auth.userID"
	ctxUsername = "auth.username"
	ctxRole     = "auth.role"
)

// RequireAuth verifies the bearer token and stores the claims on the gin
// context. Failures answer 403, which is the status the client interceptor
// keys its refresh protocol on.
func RequireAuth(issuer *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		raw = strings.TrimPrefix(raw, "Bearer ")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := issuer.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUsername, claims.Username)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id set by RequireAuth.
func CurrentUserID(c *gin.Context) int64 {
	v, _ := c.Get(ctxUserID)
	id, _ := v.(int64)
	return id
}

// CurrentUsername returns the authenticated username set by RequireAuth.
func CurrentUsername(c *gin.Context) string {
	v, _ := c.Get(ctxUsername)
	name, _ := v.(string)
	return name
}
