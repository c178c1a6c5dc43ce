package model

import "time"

// Notification 发给某个用户的通知；只追加，只有已读标记会变化
type Notification struct {
    ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
    UserID    int64     `json:"user_id" gorm:"index:idx_notification_user_created;not null"`
    Message   string    `json:"message" gorm:"type:text;not null"`
    IsRead    bool      `json:"is_read" gorm:"not null;default:false"`
    CreatedAt time.Time `json:"created_at" gorm:"index:idx_notification_user_created"`
}

func (Notification) TableName() string { return "notifications" }
