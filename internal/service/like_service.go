package service

import (
    "context"
    "fmt"

    "go.uber.org/zap"

    "github.com/d60-Lab/likefeed/internal/repository"
    "github.com/d60-Lab/likefeed/pkg/logger"
)

// Enqueuer 派发队列的写入端
type Enqueuer interface {
    Enqueue(postID, likerID int64) bool
}

// LikeCounter 点赞数读取（可带缓存）。Refresh 在新点赞后调用，必须包含刚写入的那条
type LikeCounter interface {
    Count(ctx context.Context, postID int64) (int64, error)
    Refresh(ctx context.Context, postID int64) (int64, error)
}

type LikeResult struct {
    Created   bool  `json:"created"`
    LikeCount int64 `json:"likeCount"`
}

// LikeService 点赞写入：去重后对每个新点赞只产生一个派发事件
type LikeService interface {
    RecordLike(ctx context.Context, postID, userID int64) (*LikeResult, error)
}

type likeService struct {
    likeRepo repository.LikeRepository
    counter  LikeCounter
    queue    Enqueuer
}

func NewLikeService(likeRepo repository.LikeRepository, counter LikeCounter, queue Enqueuer) LikeService {
    return &likeService{likeRepo: likeRepo, counter: counter, queue: queue}
}

func (s *likeService) RecordLike(ctx context.Context, postID, userID int64) (*LikeResult, error) {
    if userID <= 0 {
        return nil, fmt.Errorf("%w: userId required", ErrInvalidArgument)
    }
    if postID <= 0 {
        return nil, fmt.Errorf("%w: postId required", ErrInvalidArgument)
    }

    // 先落库（或确认重复）再入队：崩溃只会丢通知，不会凭空多出通知
    created, err := s.likeRepo.Create(ctx, userID, postID)
    if err != nil {
        return nil, storeErr("insert like", err)
    }
    if created && s.queue != nil && !s.queue.Enqueue(postID, userID) {
        logger.Warn("dispatch queue closed, notification dropped",
            zap.Int64("post_id", postID), zap.Int64("user_id", userID))
    }

    var count int64
    if created {
        count, err = s.counter.Refresh(ctx, postID)
    } else {
        count, err = s.counter.Count(ctx, postID)
    }
    if err != nil {
        return nil, storeErr("count likes", err)
    }
    return &LikeResult{Created: created, LikeCount: count}, nil
}
