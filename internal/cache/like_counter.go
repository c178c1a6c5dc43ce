package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/d60-Lab/likefeed/pkg/logger"
)

// LikeCountSource 点赞数的权威来源（数据库）
type LikeCountSource interface {
	CountByPost(ctx context.Context, postID int64) (int64, error)
}

// LikeCounter 帖子点赞数的 cache-aside 读取。
// 点赞只增不删，缓存值只允许变大：回源结果经 storeMax 写入，
// 较早开始的回源即使晚写回也覆盖不了新值。
// cache 为 nil 时直接读数据库。
type LikeCounter struct {
	source LikeCountSource
	cache  *redis.Client
	ttl    time.Duration
	sf     singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

func NewLikeCounter(source LikeCountSource, cache *redis.Client, ttl time.Duration) *LikeCounter {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &LikeCounter{source: source, cache: cache, ttl: ttl}
}

func likeCountKey(postID int64) string { return fmt.Sprintf("post:likes:%d", postID) }

// KEYS[1] 计数 key；ARGV[1] 新值；ARGV[2] 过期毫秒。已有值不小于新值时保持原样
var storeMaxScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]))
if cur and cur >= tonumber(ARGV[1]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

func (c *LikeCounter) storeMax(ctx context.Context, postID, n int64) {
	err := storeMaxScript.Run(ctx, c.cache, []string{likeCountKey(postID)}, n, c.ttl.Milliseconds()).Err()
	if err != nil {
		logger.Warn("like count cache set failed", zap.Int64("post_id", postID), zap.Error(err))
	}
}

// Count 先查缓存，未命中回源并回填；缓存故障只记日志，不影响结果。
func (c *LikeCounter) Count(ctx context.Context, postID int64) (int64, error) {
	if c.cache == nil {
		return c.source.CountByPost(ctx, postID)
	}

	key := likeCountKey(postID)
	val, err := c.cache.Get(ctx, key).Result()
	switch {
	case err == nil:
		if n, perr := strconv.ParseInt(val, 10, 64); perr == nil {
			c.hits.Add(1)
			return n, nil
		}
	case !errors.Is(err, redis.Nil):
		logger.Warn("like count cache get failed", zap.Int64("post_id", postID), zap.Error(err))
	}

	c.misses.Add(1)
	// 同一帖子的并发回源合并为一次查询
	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		n, err := c.source.CountByPost(ctx, postID)
		if err != nil {
			return int64(0), err
		}
		c.storeMax(ctx, postID, n)
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// Refresh 新点赞写入后调用：绕过合并中的回源直接读库，结果写回缓存。
// 读库失败时删 key，交给下一次读取回源。
func (c *LikeCounter) Refresh(ctx context.Context, postID int64) (int64, error) {
	if c.cache == nil {
		return c.source.CountByPost(ctx, postID)
	}
	// 之后的读者不再加入写入前发起的那次回源
	c.sf.Forget(likeCountKey(postID))

	n, err := c.source.CountByPost(ctx, postID)
	if err != nil {
		c.Invalidate(ctx, postID)
		return 0, err
	}
	c.storeMax(ctx, postID, n)
	return n, nil
}

// Invalidate 删除缓存的计数
func (c *LikeCounter) Invalidate(ctx context.Context, postID int64) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Del(ctx, likeCountKey(postID)).Err(); err != nil {
		logger.Warn("like count cache invalidate failed", zap.Int64("post_id", postID), zap.Error(err))
	}
}

// Counters 命中/回源次数
func (c *LikeCounter) Counters() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
