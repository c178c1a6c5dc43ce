package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/likefeed/pkg/logger"
)

// Response 统一的 HTTP 返回格式
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    data,
	})
}

// Fail 错误返回只带 code/message，data 为 null
func Fail(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, Response{
		Code:    httpStatus,
		Message: message,
		Data:    nil,
	})
}

func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	Fail(c, http.StatusNotFound, message)
}

func TooManyRequests(c *gin.Context) {
	Fail(c, http.StatusTooManyRequests, "too many requests")
}

// InternalError 记录真实错误，对外只返回固定文案
func InternalError(c *gin.Context, err error) {
	logger.Error("http internal error",
		zap.String("request_id", c.GetString(RequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	Fail(c, http.StatusInternalServerError, "internal error")
}

// RequestIDKey gin.Context 中保存请求 id 的键
const RequestIDKey = "request_id"
