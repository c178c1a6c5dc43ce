package handler

import (
    "strconv"

    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/likefeed/pkg/response"
)

type likeRequest struct {
    UserID int64 `json:"userId" binding:"required,gt=0"`
}

type likeResponse struct {
    Success   bool  `json:"success"`
    LikeCount int64 `json:"likeCount"`
    Created   bool  `json:"created"`
}

// LikePost 点赞帖子；重复点赞幂等，只有新点赞才会触发通知
// @Summary 点赞帖子
// @Tags 点赞
// @Accept json
// @Produce json
// @Param postId path int true "帖子ID"
// @Param request body likeRequest true "点赞用户"
// @Success 200 {object} response.Response{data=likeResponse}
// @Failure 400 {object} response.Response
// @Failure 429 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/posts/{postId}/like [post]
func (h *Handler) LikePost(c *gin.Context) {
    postID, err := strconv.ParseInt(c.Param("postId"), 10, 64)
    if err != nil || postID <= 0 {
        response.BadRequest(c, "invalid postId")
        return
    }
    var req likeRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.BadRequest(c, "userId required")
        return
    }
    res, err := h.likeService.RecordLike(c.Request.Context(), postID, req.UserID)
    if err != nil {
        writeError(c, err)
        return
    }
    response.Success(c, likeResponse{Success: true, LikeCount: res.LikeCount, Created: res.Created})
}
