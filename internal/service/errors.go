package service

import (
    "errors"
    "fmt"

    "github.com/d60-Lab/likefeed/internal/repository"
)

var (
    // ErrInvalidArgument 缺少必填标识，返回给调用方 4xx
    ErrInvalidArgument = errors.New("invalid argument")
    // ErrNotFound 引用的记录不存在
    ErrNotFound = errors.New("not found")
    // ErrStoreFailure 存储不可用或写入失败
    ErrStoreFailure = errors.New("store failure")
)

func storeErr(op string, err error) error {
    if errors.Is(err, repository.ErrNotFound) {
        return fmt.Errorf("%w: %s", ErrNotFound, op)
    }
    return fmt.Errorf("%w: %s: %v", ErrStoreFailure, op, err)
}
