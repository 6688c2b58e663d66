package middleware

import (
	"net/http"

	"pawmart-be/internal/auth"
	"pawmart-be/internal/logger"
	"pawmart-be/internal/user"
	"pawmart-be/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TokenParser interface {
	Parse(token string) (*user.CustomClaims, error)
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// Auth attaches the caller's identity when a token is present. Requests
// without a token pass through anonymously; a bad token is rejected.
func Auth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := auth.ExtractAccessToken(c.Request)
		if raw == "" {
			c.Next()
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			logger.FromCtx(c.Request.Context()).Info("rejected access token",
				zap.String("layer", "middleware"),
				zap.Error(err),
			)
			abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Failed to validate token")
			return
		}

		ctx := utils.SetUserContext(c.Request.Context(), claims.UserID, claims.Email, claims.Role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUserIDFromContext(c.Request.Context()); !ok {
			abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Login required")
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if _, ok := utils.GetUserIDFromContext(ctx); !ok {
			abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Login required")
			return
		}
		if !utils.IsAdmin(ctx) {
			abort(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
			return
		}
		c.Next()
	}
}
