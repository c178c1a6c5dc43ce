package repository

import (
    "context"

    "gorm.io/gorm"
    "gorm.io/gorm/clause"

    "github.com/d60-Lab/likefeed/internal/model"
)

type LikeRepository interface {
    // Create 插入 (user, post)；已存在时 created=false 且不报错
    Create(ctx context.Context, userID, postID int64) (created bool, err error)
    Exists(ctx context.Context, userID, postID int64) (bool, error)
    CountByPost(ctx context.Context, postID int64) (int64, error)
}

type likeRepository struct {
    db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository { return &likeRepository{db: db} }

func (r *likeRepository) Create(ctx context.Context, userID, postID int64) (bool, error) {
    l := &model.Like{UserID: userID, PostID: postID}
    // 幂等：重复点赞不报错，靠 RowsAffected 判断是否新建
    res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(l)
    if res.Error != nil {
        return false, res.Error
    }
    return res.RowsAffected > 0, nil
}

func (r *likeRepository) Exists(ctx context.Context, userID, postID int64) (bool, error) {
    var cnt int64
    if err := r.db.WithContext(ctx).
        Model(&model.Like{}).
        Where("user_id = ? AND post_id = ?", userID, postID).
        Count(&cnt).Error; err != nil {
        return false, err
    }
    return cnt > 0, nil
}

func (r *likeRepository) CountByPost(ctx context.Context, postID int64) (int64, error) {
    var cnt int64
    err := r.db.WithContext(ctx).Model(&model.Like{}).Where("post_id = ?", postID).Count(&cnt).Error
    return cnt, err
}
