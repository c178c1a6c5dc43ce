package repository

import (
    "context"

    "gorm.io/gorm"

    "github.com/d60-Lab/likefeed/internal/model"
)

// NotificationRepository 通知仓储接口
type NotificationRepository interface {
    // Insert 写入一条未读通知，返回带自增 ID 的记录
    Insert(ctx context.Context, userID int64, message string) (*model.Notification, error)

    // ListRecent 按创建时间倒序返回最近 limit 条
    ListRecent(ctx context.Context, userID int64, limit int) ([]*model.Notification, error)

    // MarkRead 标记已读；已读或不存在都视为成功
    MarkRead(ctx context.Context, notificationID int64) error

    // MarkAllRead 标记某用户全部已读
    MarkAllRead(ctx context.Context, userID int64) error

    // CountUnread 统计未读数量
    CountUnread(ctx context.Context, userID int64) (int64, error)
}

type notificationRepository struct {
    db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
    return &notificationRepository{db: db}
}

func (r *notificationRepository) Insert(ctx context.Context, userID int64, message string) (*model.Notification, error) {
    n := &model.Notification{UserID: userID, Message: message}
    if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
        return nil, err
    }
    return n, nil
}

func (r *notificationRepository) ListRecent(ctx context.Context, userID int64, limit int) ([]*model.Notification, error) {
    var res []*model.Notification
    err := r.db.WithContext(ctx).
        Where("user_id = ?", userID).
        Order("created_at DESC").
        Order("id DESC").
        Limit(limit).
        Find(&res).Error
    if err != nil {
        return nil, err
    }
    return res, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, notificationID int64) error {
    return r.db.WithContext(ctx).
        Model(&model.Notification{}).
        Where("id = ?", notificationID).
        Update("is_read", true).Error
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
    return r.db.WithContext(ctx).
        Model(&model.Notification{}).
        Where("user_id = ? AND is_read = ?", userID, false).
        Update("is_read", true).Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
    var cnt int64
    err := r.db.WithContext(ctx).
        Model(&model.Notification{}).
        Where("user_id = ? AND is_read = ?", userID, false).
        Count(&cnt).Error
    return cnt, err
}
