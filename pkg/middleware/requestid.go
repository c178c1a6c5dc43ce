package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/d60-Lab/likefeed/pkg/response"
)

const HeaderRequestID = "X-Request-Id"

// RequestID 沿用上游传入的 id，没有则生成一个，并回写到响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(response.RequestIDKey, rid)
		c.Header(HeaderRequestID, rid)
		c.Next()
	}
}
