package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/d60-Lab/likefeed/pkg/response"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	r := newEngine(RequestID())
	var seen string
	r.GET("/x", func(c *gin.Context) {
		seen = c.GetString(response.RequestIDKey)
		c.Status(http.StatusNoContent)
	})

	w := do(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w = do(r, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func TestRecovery_Returns500(t *testing.T) {
	r := newEngine(RequestID(), Logger(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := do(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal error")
}

func TestRateLimit_RejectsOverBurst(t *testing.T) {
	r := newEngine(RateLimit(1, 2, time.Minute))
	r.POST("/posts/:postId/like", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/other", func(c *gin.Context) { c.Status(http.StatusOK) })

	post := func(path, ip string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = ip + ":1234"
		return do(r, req).Code
	}

	// 同一路由模板共用一个桶，不按帖子区分
	codes := []int{
		post("/posts/1/like", "10.0.0.1"),
		post("/posts/2/like", "10.0.0.1"),
		post("/posts/3/like", "10.0.0.1"),
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// 其他客户端、其他路由不受影响
	assert.Equal(t, http.StatusOK, post("/posts/1/like", "10.0.0.2"))
	assert.Equal(t, http.StatusOK, post("/other", "10.0.0.1"))
}

func TestRateLimit_SweepsIdleBuckets(t *testing.T) {
	l := newRouteLimiter(10, 10, time.Minute)
	now := time.Now()
	l.now = func() time.Time { return now }

	assert.True(t, l.allow(routeKey{ip: "a", route: "/x"}))
	assert.True(t, l.allow(routeKey{ip: "b", route: "/x"}))
	assert.Equal(t, 2, l.size())

	now = now.Add(30 * time.Second)
	assert.True(t, l.allow(routeKey{ip: "a", route: "/x"}))
	assert.Equal(t, 2, l.size(), "nothing idle yet")

	// b 闲置满一分钟，a 只闲置了半分钟
	now = now.Add(45 * time.Second)
	assert.True(t, l.allow(routeKey{ip: "c", route: "/x"}))
	assert.Equal(t, 2, l.size())

	_, ok := l.buckets[routeKey{ip: "b", route: "/x"}]
	assert.False(t, ok)
}
