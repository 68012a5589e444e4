package middleware

import (
	"strings"

	"campusnest_backend/internal/auth"
	"campusnest_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey = "userID"
	roleKey   = "role"
)

// AuthMiddleware - middleware проверки JWT
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			_ = c.Error(apperrors.ErrUnauthorized("Authorization header missing or invalid"))
			c.Abort()
			return
		}

		claims, err := tokens.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			_ = c.Error(apperrors.ErrUnauthorized("Invalid token"))
			c.Abort()
			return
		}

		// Сохраняем claims в контекст
		c.Set(userIDKey, claims.UserID)
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
