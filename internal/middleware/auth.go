package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"signa-backend/internal/config"
	appErrors "signa-backend/pkg/errors"
	"signa-backend/pkg/utils"
)

const (
	UsernameKey = "username"
	NameKey     = "name"
	EmailKey    = "email"
)

// AuthMiddleware validates the bearer access token and exposes its claims to
// the handlers.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Cabeçalho de autorização ausente")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Cabeçalho de autorização inválido")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1], cfg.JWT.Secret)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, appErrors.ErrInvalidSessionToken.Error())
			c.Abort()
			return
		}

		c.Set(UsernameKey, claims.Username)
		c.Set(NameKey, claims.Name)
		c.Set(EmailKey, claims.Email)

		c.Next()
	}
}

// GetUsername retrieves the authenticated RF from the Gin context.
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get(UsernameKey); exists {
		if rf, ok := username.(string); ok {
			return rf
		}
	}
	return ""
}
