package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles.
// Moderation endpoints pass RoleModerator and RoleAdmin.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[string(r)] = struct{}{}
	}
	return func(c *gin.Context) {
		roleVal, ok := c.Get(ContextUserRole)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		role, _ := roleVal.(string)
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
