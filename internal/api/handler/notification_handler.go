package handler

import (
    "strconv"

    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/likefeed/pkg/response"
)

// /api/notifications/:id 下的路由共用同一个通配名，
// 按路由不同分别解释为用户ID或通知ID。
func pathID(c *gin.Context) (int64, bool) {
    id, err := strconv.ParseInt(c.Param("id"), 10, 64)
    if err != nil || id <= 0 {
        response.BadRequest(c, "invalid id")
        return 0, false
    }
    return id, true
}

// ListNotifications 某用户最近的通知，按时间倒序
// @Summary 通知列表
// @Tags 通知
// @Produce json
// @Param id path int true "用户ID"
// @Param limit query int false "条数" default(20)
// @Success 200 {object} response.Response{data=[]model.Notification}
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/notifications/{id} [get]
func (h *Handler) ListNotifications(c *gin.Context) {
    userID, ok := pathID(c)
    if !ok {
        return
    }
    limit, _ := strconv.Atoi(c.Query("limit"))
    list, err := h.notificationService.List(c.Request.Context(), userID, limit)
    if err != nil {
        writeError(c, err)
        return
    }
    response.Success(c, list)
}

// UnreadCount 未读通知数
// @Summary 未读数
// @Tags 通知
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response{data=map[string]int64}
// @Failure 400 {object} response.Response
// @Router /api/notifications/{id}/unread-count [get]
func (h *Handler) UnreadCount(c *gin.Context) {
    userID, ok := pathID(c)
    if !ok {
        return
    }
    n, err := h.notificationService.CountUnread(c.Request.Context(), userID)
    if err != nil {
        writeError(c, err)
        return
    }
    response.Success(c, gin.H{"unread": n})
}

// MarkRead 标记单条已读；重复调用或 id 不存在都视为成功
// @Summary 标记已读
// @Tags 通知
// @Produce json
// @Param id path int true "通知ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/notifications/{id}/read [put]
func (h *Handler) MarkRead(c *gin.Context) {
    id, ok := pathID(c)
    if !ok {
        return
    }
    if err := h.notificationService.MarkRead(c.Request.Context(), id); err != nil {
        writeError(c, err)
        return
    }
    response.Success(c, gin.H{"success": true})
}

// MarkAllRead 某用户全部标记已读
// @Summary 全部已读
// @Tags 通知
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/notifications/{id}/read-all [put]
func (h *Handler) MarkAllRead(c *gin.Context) {
    userID, ok := pathID(c)
    if !ok {
        return
    }
    if err := h.notificationService.MarkAllRead(c.Request.Context(), userID); err != nil {
        writeError(c, err)
        return
    }
    response.Success(c, gin.H{"success": true})
}
