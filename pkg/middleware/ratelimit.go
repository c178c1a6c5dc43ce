package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/likefeed/pkg/logger"
	"github.com/d60-Lab/likefeed/pkg/response"
)

// routeLimiter 每个 (客户端IP, 路由) 一个令牌桶。
// 闲置超过 idle 的桶在后续请求里顺带清掉，不另起 goroutine。
type routeLimiter struct {
	mu      sync.Mutex
	buckets map[routeKey]*bucket
	limit   rate.Limit
	burst   int
	idle    time.Duration
	swept   time.Time
	now     func() time.Time
}

type routeKey struct {
	ip    string
	route string
}

type bucket struct {
	tokens *rate.Limiter
	seen   time.Time
}

func newRouteLimiter(rps float64, burst int, idle time.Duration) *routeLimiter {
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	if burst <= 0 {
		burst = 1
	}
	return &routeLimiter{
		buckets: make(map[routeKey]*bucket, 1024),
		limit:   rate.Limit(rps),
		burst:   burst,
		idle:    idle,
		swept:   time.Now(),
		now:     time.Now,
	}
}

func (l *routeLimiter) allow(k routeKey) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.swept) >= l.idle {
		for key, b := range l.buckets {
			if now.Sub(b.seen) >= l.idle {
				delete(l.buckets, key)
			}
		}
		l.swept = now
	}
	b, ok := l.buckets[k]
	if !ok {
		b = &bucket{tokens: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[k] = b
	}
	b.seen = now
	return b.tokens.AllowN(now, 1)
}

func (l *routeLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *routeLimiter) handle(c *gin.Context) {
	k := routeKey{ip: c.ClientIP(), route: c.FullPath()}
	if k.route == "" {
		k.route = c.Request.URL.Path
	}
	if l.allow(k) {
		c.Next()
		return
	}
	// 可控拒绝，不打堆栈
	logger.Warn("http rate limited",
		zap.String("request_id", c.GetString(response.RequestIDKey)),
		zap.String("ip", k.ip),
		zap.String("route", k.route),
	)
	response.TooManyRequests(c)
	c.Abort()
}

// RateLimit 以 客户端IP+路由 为单位限流；idle 为桶的闲置回收时间
func RateLimit(rps float64, burst int, idle time.Duration) gin.HandlerFunc {
	return newRouteLimiter(rps, burst, idle).handle
}
