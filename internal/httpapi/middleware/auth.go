package middleware

import (
	"net/http"
	"strings"

	"github.com/azuradaemon/hati/internal/auth"
	"github.com/azuradaemon/hati/internal/common"
	"github.com/gin-gonic/gin"
)

// AuthRequired gates a route group behind a valid session token.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
			token = token[7:]
		}
		token = strings.TrimSpace(token)
		if token == "" {
			common.Fail(c, http.StatusUnauthorized, 40101, "missing session token")
			c.Abort()
			return
		}
		if err := auth.ValidateSessionToken(secret, token); err != nil {
			common.Fail(c, http.StatusUnauthorized, 40102, "invalid or expired session token")
			c.Abort()
			return
		}
		c.Next()
	}
}
