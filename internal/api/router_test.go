package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/likefeed/config"
	"github.com/d60-Lab/likefeed/internal/api/handler"
	"github.com/d60-Lab/likefeed/internal/cache"
	"github.com/d60-Lab/likefeed/internal/dispatch"
	"github.com/d60-Lab/likefeed/internal/model"
	"github.com/d60-Lab/likefeed/internal/realtime"
	"github.com/d60-Lab/likefeed/internal/repository"
	"github.com/d60-Lab/likefeed/internal/service"
	"github.com/d60-Lab/likefeed/pkg/database"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type app struct {
	ts         *httptest.Server
	dispatcher *dispatch.Dispatcher
}

func newApp(t *testing.T, mutate func(*config.Config)) *app {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Server.Mode = "test"
	cfg.Database.DSN = ":memory:"
	if mutate != nil {
		mutate(cfg)
	}

	db, err := database.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	likeRepo := repository.NewLikeRepository(db)
	postRepo := repository.NewPostRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	d := dispatch.New(dispatch.Deps{
		Posts:         postRepo,
		Users:         repository.NewUserRepository(db),
		Notifications: notifRepo,
	})
	stop := d.Start(context.Background())

	ws := realtime.NewServer(d.Registry(), cfg.Realtime)
	h := handler.NewHandler(
		service.NewLikeService(likeRepo, cache.NewLikeCounter(likeRepo, nil, 0), d),
		service.NewNotificationService(notifRepo, cfg.Dispatch.NotificationLimit),
		service.NewPostService(postRepo),
	)
	r := NewRouter(cfg, Deps{Handler: h, WS: ws.ServeWS, Limiter: NewLimiter(cfg.RateLimit)})

	ts := httptest.NewServer(r)
	t.Cleanup(func() {
		ws.CloseAll()
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = stop(ctx)
	})
	return &app{ts: ts, dispatcher: d}
}

func (a *app) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, a.ts.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (a *app) dialWS(t *testing.T) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(a.ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestHealth(t *testing.T) {
	a := newApp(t, nil)
	resp, err := http.Get(a.ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListPosts(t *testing.T) {
	a := newApp(t, nil)
	code, env := a.do(t, http.MethodGet, "/api/posts", nil)
	require.Equal(t, http.StatusOK, code)

	var posts []model.PostWithStats
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	require.Len(t, posts, 2)
	assert.Equal(t, "Hello World!", posts[0].Content)
	assert.Equal(t, "john", posts[0].Username)
}

func TestLikePost_Validation(t *testing.T) {
	a := newApp(t, nil)

	code, env := a.do(t, http.MethodPost, "/api/posts/1/like", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "userId required", env.Message)

	code, _ = a.do(t, http.MethodPost, "/api/posts/abc/like", map[string]any{"userId": 2})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLikeToNotification_EndToEnd(t *testing.T) {
	a := newApp(t, nil)
	ws := a.dialWS(t)
	require.NoError(t, ws.WriteJSON(map[string]any{"type": "auth", "userId": 1}))
	// 握手是异步的，等待服务端登记完成
	require.Eventually(t, func() bool { return a.dispatcher.Registry().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	code, env := a.do(t, http.MethodPost, "/api/posts/1/like", map[string]any{"userId": 2})
	require.Equal(t, http.StatusOK, code)
	var like struct {
		Success   bool  `json:"success"`
		LikeCount int64 `json:"likeCount"`
		Created   bool  `json:"created"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &like))
	assert.True(t, like.Success)
	assert.True(t, like.Created)
	assert.Equal(t, int64(1), like.LikeCount)

	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	var pushed dispatch.Payload
	require.NoError(t, ws.ReadJSON(&pushed))
	assert.Equal(t, "notification", pushed.Type)
	assert.Equal(t, "jane liked your post", pushed.Message)
	_, err := time.Parse(time.RFC3339Nano, pushed.Timestamp)
	assert.NoError(t, err)

	// 重复点赞：计数不变，也不再推送
	code, env = a.do(t, http.MethodPost, "/api/posts/1/like", map[string]any{"userId": 2})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &like))
	assert.False(t, like.Created)
	assert.Equal(t, int64(1), like.LikeCount)

	code, env = a.do(t, http.MethodGet, "/api/notifications/1", nil)
	require.Equal(t, http.StatusOK, code)
	var list []model.Notification
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, pushed.ID, list[0].ID)
	assert.False(t, list[0].IsRead)

	var unread struct {
		Unread int64 `json:"unread"`
	}
	_, env = a.do(t, http.MethodGet, "/api/notifications/1/unread-count", nil)
	require.NoError(t, json.Unmarshal(env.Data, &unread))
	assert.Equal(t, int64(1), unread.Unread)

	for i := 0; i < 2; i++ {
		code, _ = a.do(t, http.MethodPut, "/api/notifications/"+jsonID(pushed.ID)+"/read", nil)
		assert.Equal(t, http.StatusOK, code)
	}
	_, env = a.do(t, http.MethodGet, "/api/notifications/1/unread-count", nil)
	require.NoError(t, json.Unmarshal(env.Data, &unread))
	assert.Zero(t, unread.Unread)

	code, _ = a.do(t, http.MethodPut, "/api/notifications/1/read-all", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = a.do(t, http.MethodPut, "/api/notifications/424242/read", nil)
	assert.Equal(t, http.StatusOK, code, "unknown id is a no-op")
}

func TestLikePost_RateLimited(t *testing.T) {
	a := newApp(t, func(c *config.Config) {
		c.RateLimit.RPS = 0.001
		c.RateLimit.Burst = 1
	})

	code, _ := a.do(t, http.MethodPost, "/api/posts/1/like", map[string]any{"userId": 2})
	assert.Equal(t, http.StatusOK, code)
	code, _ = a.do(t, http.MethodPost, "/api/posts/2/like", map[string]any{"userId": 1})
	assert.Equal(t, http.StatusTooManyRequests, code)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newApp(t, nil)
	resp, err := http.Get(a.ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
