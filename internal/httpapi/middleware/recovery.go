package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/azuradaemon/hati/internal/common"
	"github.com/gin-gonic/gin"
)

// Recovery converts panics into a 500 envelope unless the response has
// already started streaming, in which case the connection just drops.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic recovered: %v\n%s", r, debug.Stack())
				if !c.Writer.Written() {
					common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
