package handler

import (
    "strconv"

    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/likefeed/pkg/response"
)

// ListPosts 帖子列表，带作者名和点赞数
// @Summary 帖子列表
// @Tags 帖子
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(50)
// @Success 200 {object} response.Response{data=[]model.PostWithStats}
// @Failure 500 {object} response.Response
// @Router /api/posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
    page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
    pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
    list, err := h.postService.List(c.Request.Context(), page, pageSize)
    if err != nil {
        writeError(c, err)
        return
    }
    response.Success(c, list)
}
