package model

import "time"

// User 用户；对通知链路只需要用户名
type User struct {
    ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
    Username  string    `json:"username" gorm:"type:varchar(64);uniqueIndex;not null"`
    CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }
