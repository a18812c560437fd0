package middleware

import (
	"net/http"
	"strings"

	"pixelgram/services"

	"github.com/gin-gonic/gin"
)

var authService = services.NewAuthService()

func tokenFromRequest(c *gin.Context) string {
	// сперва httpOnly кука, потом Authorization: Bearer
	if cookie, err := c.Cookie(services.AuthCookieName); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// RequireAuth кладет user_id в контекст или отвечает 401
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		userID, err := authService.ParseSession(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// OptionalAuth кладет user_id, если токен есть и валиден; аноним
// проходит дальше без ошибки
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := tokenFromRequest(c); token != "" {
			if userID, err := authService.ParseSession(token); err == nil {
				c.Set("user_id", userID)
			}
		}
		c.Next()
	}
}
