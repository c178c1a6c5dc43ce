package repository

import (
    "context"

    "gorm.io/gorm"

    "github.com/d60-Lab/likefeed/internal/model"
)

type PostRepository interface {
    Create(ctx context.Context, p *model.Post) error
    // OwnerID 帖子不存在时返回 ErrNotFound
    OwnerID(ctx context.Context, postID int64) (int64, error)
    ListWithStats(ctx context.Context, offset, limit int) ([]*model.PostWithStats, error)
}

type postRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
    return r.db.WithContext(ctx).Create(p).Error
}

func (r *postRepository) OwnerID(ctx context.Context, postID int64) (int64, error) {
    var p model.Post
    if err := r.db.WithContext(ctx).Select("id", "user_id").Where("id = ?", postID).First(&p).Error; err != nil {
        return 0, translate(err)
    }
    return p.UserID, nil
}

func (r *postRepository) ListWithStats(ctx context.Context, offset, limit int) ([]*model.PostWithStats, error) {
    var res []*model.PostWithStats
    err := r.db.WithContext(ctx).
        Table("posts").
        Select("posts.id, posts.content, posts.user_id, users.username, " +
            "(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS like_count").
        Joins("JOIN users ON users.id = posts.user_id").
        Order("posts.id").
        Offset(offset).
        Limit(limit).
        Scan(&res).Error
    return res, err
}
