package model

import "time"

// Like 点赞（用户 A 赞了帖子 P）；(user_id, post_id) 唯一，重复点赞由数据库去重
type Like struct {
    ID        int64     `gorm:"primaryKey;autoIncrement"`
    UserID    int64     `gorm:"not null;uniqueIndex:ux_like_user_post"`
    PostID    int64     `gorm:"not null;uniqueIndex:ux_like_user_post;index:idx_like_post"`
    CreatedAt time.Time
}

func (Like) TableName() string { return "likes" }
