package handler

import (
    "errors"

    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/likefeed/internal/service"
    "github.com/d60-Lab/likefeed/pkg/response"
)

type Handler struct {
    likeService         service.LikeService
    notificationService service.NotificationService
    postService         service.PostService
}

func NewHandler(likes service.LikeService, notifications service.NotificationService, posts service.PostService) *Handler {
    return &Handler{likeService: likes, notificationService: notifications, postService: posts}
}

// writeError 业务错误到 HTTP 状态码的映射
func writeError(c *gin.Context, err error) {
    switch {
    case errors.Is(err, service.ErrInvalidArgument):
        response.BadRequest(c, err.Error())
    case errors.Is(err, service.ErrNotFound):
        response.NotFound(c, err.Error())
    default:
        response.InternalError(c, err)
    }
}
