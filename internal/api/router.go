package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/likefeed/config"
	_ "github.com/d60-Lab/likefeed/docs"
	"github.com/d60-Lab/likefeed/internal/api/handler"
	"github.com/d60-Lab/likefeed/pkg/middleware"
)

// Deps 路由需要的组件
type Deps struct {
	Handler *handler.Handler
	WS      http.HandlerFunc
	Limiter gin.HandlerFunc
	Healthy func() error
}

// NewLimiter 按配置构建点赞接口的限流器；rps<=0 表示不限流
func NewLimiter(c config.RateLimitConfig) gin.HandlerFunc {
	if c.RPS <= 0 {
		return nil
	}
	return middleware.RateLimit(c.RPS, c.Burst, c.TTL)
}

func NewRouter(cfg *config.Config, d Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(otelgin.Middleware(cfg.Server.Name))
	r.Use(cors.New(corsConfig(cfg.Server.CORSOrigins)))
	// websocket 需要劫持原始连接，不能经过 gzip
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws", "/metrics"})))

	r.GET("/health", func(c *gin.Context) {
		if d.Healthy != nil {
			if err := d.Healthy(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if d.WS != nil {
		r.GET("/ws", gin.WrapF(d.WS))
	}

	h := d.Handler
	api := r.Group("/api")
	{
		posts := api.Group("/posts")
		posts.GET("", h.ListPosts)
		if d.Limiter != nil {
			posts.POST("/:postId/like", d.Limiter, h.LikePost)
		} else {
			posts.POST("/:postId/like", h.LikePost)
		}

		notifications := api.Group("/notifications")
		notifications.GET("/:id", h.ListNotifications)
		notifications.GET("/:id/unread-count", h.UnreadCount)
		notifications.PUT("/:id/read", h.MarkRead)
		notifications.PUT("/:id/read-all", h.MarkAllRead)
	}

	if cfg.Server.StaticDir != "" {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.Server.StaticDir))))
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}
	c.AllowHeaders = append(c.AllowHeaders, middleware.HeaderRequestID)
	c.ExposeHeaders = []string{middleware.HeaderRequestID}

	all := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			all = true
		}
	}
	if all {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
