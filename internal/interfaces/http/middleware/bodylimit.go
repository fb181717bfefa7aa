package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimitDetail is the detail sent for oversized requests
const BodyLimitDetail = "Arquivo excede o tamanho máximo permitido."

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"detail":  BodyLimitDetail,
			})
			return
		}

		// Streaming bodies without a declared length are cut off while read
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
