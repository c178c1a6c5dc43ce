package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/likefeed/pkg/logger"
	"github.com/d60-Lab/likefeed/pkg/response"
)

// Recovery 捕获 panic，上报 sentry 后返回 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(c.Request)
				hub.Scope().SetTag("request_id", c.GetString(response.RequestIDKey))
				hub.Recover(err)

				logger.Error("http panic",
					zap.String("request_id", c.GetString(response.RequestIDKey)),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", err),
					zap.ByteString("stack", debug.Stack()),
				)
				response.Fail(c, http.StatusInternalServerError, "internal error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
