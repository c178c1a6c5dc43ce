package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/likefeed/config"
)

// NewClient 建立连接并 Ping 一次，失败返回错误而不是 panic
func NewClient(ctx context.Context, c config.RedisConfig) (*redis.Client, error) {
	poolSize := c.PoolSize
	if poolSize <= 0 {
		poolSize = 20
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     poolSize,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", c.Addr, err)
	}
	return rdb, nil
}
