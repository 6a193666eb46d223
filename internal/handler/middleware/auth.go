package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"mechanic-booking/internal/handler/httperr"
	"mechanic-booking/internal/pkg/cookie"
	"mechanic-booking/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	tokenValidator usecase.TokenValidator
}

const ctxOperatorKey = "operator"

func NewAuthMiddleware(tokenValidator usecase.TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokenValidator: tokenValidator,
	}
}

// RequireOperator accepts the token from the operator cookie or a Bearer header.
func (m *AuthMiddleware) RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := cookie.GetAccessToken(c)
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimSpace(authHeader[len("Bearer "):])
			}
		}

		if token == "" {
			httperr.AbortWithError(c, http.StatusUnauthorized, nil, "Access token required", nil)
			return
		}

		operator, err := m.tokenValidator.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			httperr.AbortWithError(c, http.StatusUnauthorized, err, "Invalid or expired token", nil)
			return
		}

		c.Set(ctxOperatorKey, operator)
		c.Next()
	}
}

func GetOperator(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxOperatorKey)
	if !exists {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}
