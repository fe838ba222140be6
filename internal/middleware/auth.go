package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prasit-dev/pharmadmin/internal/pkg"
)

// Auth returns a gin middleware that requires a valid bearer token and
// stores the caller identity and role in the request context. The role
// feeds the engine's field projection guard; the user id becomes the audit
// actor for mutations.
func Auth(tokens *pkg.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			unauthorized(c)
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			unauthorized(c)
			return
		}

		c.Set(pkg.ContextUserIDKey, claims.UserID)
		c.Set(pkg.ContextRoleKey, claims.Role)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, pkg.Response{
		Success: false,
		Message: "unauthorized",
	})
}
