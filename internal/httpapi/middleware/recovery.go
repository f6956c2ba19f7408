package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pressdeck/editorial-chat/internal/common"
)

// Recovery converts panics into the standard envelope instead of a bare
// 500, keeping failures inside the component boundary.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				rid, _ := c.Get(RequestIDKey)
				log.Error().
					Interface("panic", r).
					Interface("request_id", rid).
					Str("path", c.Request.URL.Path).
					Msg("handler panic")
				common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
