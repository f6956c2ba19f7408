package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pressdeck/editorial-chat/internal/common"
	"github.com/pressdeck/editorial-chat/internal/identity"
)

const (
	UserIDKey = "auth.user_id"
	RoleKey   = "auth.role"
)

// AuthRequired validates the bearer token and exposes {userId, role} to
// handlers. The chat subsystem consumes this as an opaque identity fact.
func AuthRequired(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
			c.Abort()
			return
		}
		uid, role, err := identity.ParseToken(jwtSecret, strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40102, "invalid token")
			c.Abort()
			return
		}
		c.Set(UserIDKey, uid)
		c.Set(RoleKey, role)
		c.Next()
	}
}

// RequireRoles gates a route group to the given roles. Used for the chat
// endpoints, which are restricted to elevated roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role, _ := c.Get(RoleKey)
		r, _ := role.(string)
		if _, ok := allowed[r]; !ok {
			common.Fail(c, http.StatusForbidden, 40301, "forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}
