package service

import (
    "context"

    "github.com/d60-Lab/likefeed/internal/model"
    "github.com/d60-Lab/likefeed/internal/repository"
)

type PostService interface {
    List(ctx context.Context, page, pageSize int) ([]*model.PostWithStats, error)
}

type postService struct {
    postRepo repository.PostRepository
}

func NewPostService(postRepo repository.PostRepository) PostService {
    return &postService{postRepo: postRepo}
}

func (s *postService) List(ctx context.Context, page, pageSize int) ([]*model.PostWithStats, error) {
    if page < 1 { page = 1 }
    if pageSize < 1 { pageSize = 50 }
    offset := (page - 1) * pageSize
    items, err := s.postRepo.ListWithStats(ctx, offset, pageSize)
    if err != nil {
        return nil, storeErr("list posts", err)
    }
    if items == nil {
        items = []*model.PostWithStats{}
    }
    return items, nil
}
