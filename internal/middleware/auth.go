package middleware

import (
	"net/http"
	"strings"

	"membership-api/internal/config"
	"membership-api/internal/response"
	"membership-api/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the Bearer access token and stores the
// authenticated principal's id and role in the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			response.JSON(c, http.StatusUnauthorized, response.Error("Missing bearer token"))
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(config.AppConfig.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			response.JSON(c, http.StatusUnauthorized, response.Error("Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRole gates a route group to one role. Must run after
// AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != role {
			response.JSON(c, http.StatusForbidden, response.Error("Insufficient permissions"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated principal's user id.
func CurrentUserID(c *gin.Context) uint {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
