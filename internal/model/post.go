package model

import "time"

// Post 内容主体；创建后不可修改
type Post struct {
    ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
    UserID    int64     `json:"user_id" gorm:"index:idx_post_user;not null"`
    Content   string    `json:"content" gorm:"type:text"`
    CreatedAt time.Time `json:"created_at"`
}

func (Post) TableName() string { return "posts" }

// PostWithStats 列表页使用的帖子视图
type PostWithStats struct {
    ID        int64  `json:"id"`
    Content   string `json:"content"`
    UserID    int64  `json:"user_id"`
    Username  string `json:"username"`
    LikeCount int64  `json:"like_count"`
}
