package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kentavrex/topfit/internal/types"
)

const (
	// UserIDKey holds the Telegram id of the authenticated user
	UserIDKey   = "user_id"
	UsernameKey = "username"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(token string) (*types.TokenClaims, error)
}

// AuthMiddleware creates a middleware that validates JWT tokens
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{Error: "missing authorization header", Code: "unauthorized"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{Error: "invalid authorization header format", Code: "unauthorized"})
			return
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{Error: "invalid token", Code: "unauthorized"})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)
		c.Next()
	}
}

// AdminOnly lets through only the configured admin. It must run after
// AuthMiddleware.
func AdminOnly(adminID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminID == 0 || c.GetInt64(UserIDKey) != adminID {
			c.AbortWithStatusJSON(http.StatusForbidden, types.ErrorResponse{Error: "admin access required", Code: "forbidden"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id set by AuthMiddleware
func UserID(c *gin.Context) int64 {
	return c.GetInt64(UserIDKey)
}
