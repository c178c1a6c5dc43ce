package service

import (
    "context"
    "fmt"

    "github.com/d60-Lab/likefeed/internal/model"
    "github.com/d60-Lab/likefeed/internal/repository"
)

// NotificationService 通知读侧，直接透传到仓储
type NotificationService interface {
    List(ctx context.Context, userID int64, limit int) ([]*model.Notification, error)
    MarkRead(ctx context.Context, notificationID int64) error
    MarkAllRead(ctx context.Context, userID int64) error
    CountUnread(ctx context.Context, userID int64) (int64, error)
}

type notificationService struct {
    repo         repository.NotificationRepository
    defaultLimit int
}

const maxListLimit = 100

func NewNotificationService(repo repository.NotificationRepository, defaultLimit int) NotificationService {
    if defaultLimit <= 0 {
        defaultLimit = 20
    }
    return &notificationService{repo: repo, defaultLimit: defaultLimit}
}

func (s *notificationService) List(ctx context.Context, userID int64, limit int) ([]*model.Notification, error) {
    if userID <= 0 {
        return nil, fmt.Errorf("%w: userId required", ErrInvalidArgument)
    }
    switch {
    case limit <= 0:
        limit = s.defaultLimit
    case limit > maxListLimit:
        limit = maxListLimit
    }
    items, err := s.repo.ListRecent(ctx, userID, limit)
    if err != nil {
        return nil, storeErr("list notifications", err)
    }
    return items, nil
}

// MarkRead 幂等；未知 id 也返回成功
func (s *notificationService) MarkRead(ctx context.Context, notificationID int64) error {
    if notificationID <= 0 {
        return fmt.Errorf("%w: notification id required", ErrInvalidArgument)
    }
    if err := s.repo.MarkRead(ctx, notificationID); err != nil {
        return storeErr("mark read", err)
    }
    return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int64) error {
    if userID <= 0 {
        return fmt.Errorf("%w: userId required", ErrInvalidArgument)
    }
    if err := s.repo.MarkAllRead(ctx, userID); err != nil {
        return storeErr("mark all read", err)
    }
    return nil
}

func (s *notificationService) CountUnread(ctx context.Context, userID int64) (int64, error) {
    if userID <= 0 {
        return 0, fmt.Errorf("%w: userId required", ErrInvalidArgument)
    }
    n, err := s.repo.CountUnread(ctx, userID)
    if err != nil {
        return 0, storeErr("count unread", err)
    }
    return n, nil
}
