package repository

import (
    "context"

    "gorm.io/gorm"

    "github.com/d60-Lab/likefeed/internal/model"
)

type UserRepository interface {
    Create(ctx context.Context, u *model.User) error
    // Username 用户不存在时返回 ErrNotFound
    Username(ctx context.Context, userID int64) (string, error)
}

type userRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
    return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepository) Username(ctx context.Context, userID int64) (string, error) {
    var u model.User
    if err := r.db.WithContext(ctx).Select("id", "username").Where("id = ?", userID).First(&u).Error; err != nil {
        return "", translate(err)
    }
    return u.Username, nil
}
