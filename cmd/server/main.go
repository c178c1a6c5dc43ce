package main

import (
    "context"
    "errors"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/getsentry/sentry-go"
    "github.com/joho/godotenv"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"
    "golang.org/x/sync/errgroup"

    "github.com/d60-Lab/likefeed/config"
    "github.com/d60-Lab/likefeed/internal/api"
    "github.com/d60-Lab/likefeed/internal/api/handler"
    "github.com/d60-Lab/likefeed/internal/cache"
    "github.com/d60-Lab/likefeed/internal/dispatch"
    "github.com/d60-Lab/likefeed/internal/realtime"
    "github.com/d60-Lab/likefeed/internal/repository"
    "github.com/d60-Lab/likefeed/internal/service"
    "github.com/d60-Lab/likefeed/pkg/database"
    "github.com/d60-Lab/likefeed/pkg/logger"
    "github.com/d60-Lab/likefeed/pkg/redisx"
    "github.com/d60-Lab/likefeed/pkg/tracing"
)

// @title likefeed API
// @version 1.0
// @description 帖子点赞与实时通知
// @BasePath /
func main() {
    // .env 可选
    if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
        log.Printf("load .env: %v", err)
    }

    cfg, err := config.Load()
    if err != nil {
        log.Fatalf("load config: %v", err)
    }
    if err := logger.Init(cfg.Server.Name, cfg.Log.Level, cfg.Log.Format); err != nil {
        log.Fatalf("init logger: %v", err)
    }
    defer logger.Sync()

    if err := run(cfg); err != nil {
        logger.Fatal("server exited", zap.Error(err))
    }
    logger.Info("server stopped")
}

func run(cfg *config.Config) error {
    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    if cfg.Sentry.DSN != "" {
        if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
            logger.Warn("sentry init failed", zap.Error(err))
        }
        defer sentry.Flush(2 * time.Second)
    }

    shutdownTracing, err := tracing.Init(ctx, cfg.Server.Name, cfg.Tracing)
    if err != nil {
        return err
    }
    defer func() {
        sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        if err := shutdownTracing(sctx); err != nil {
            logger.Warn("tracing shutdown", zap.Error(err))
        }
    }()

    db, err := database.InitDB(cfg)
    if err != nil {
        return err
    }
    defer database.Close(db)

    var rdb *redis.Client
    if cfg.Redis.Enabled {
        if rdb, err = redisx.NewClient(ctx, cfg.Redis); err != nil {
            return err
        }
        defer rdb.Close()
    }

    // repositories
    likeRepo := repository.NewLikeRepository(db)
    postRepo := repository.NewPostRepository(db)
    userRepo := repository.NewUserRepository(db)
    notifRepo := repository.NewNotificationRepository(db)

    dispatcher := dispatch.New(dispatch.Deps{
        Posts:         postRepo,
        Users:         userRepo,
        Notifications: notifRepo,
    }, dispatch.WithRestartDelay(cfg.Dispatch.RestartDelay))
    stopDispatch := dispatcher.Start(context.Background())

    ws := realtime.NewServer(dispatcher.Registry(), cfg.Realtime)

    h := handler.NewHandler(
        service.NewLikeService(likeRepo, cache.NewLikeCounter(likeRepo, rdb, cfg.Redis.LikeCountTTL), dispatcher),
        service.NewNotificationService(notifRepo, cfg.Dispatch.NotificationLimit),
        service.NewPostService(postRepo),
    )
    router := api.NewRouter(cfg, api.Deps{
        Handler: h,
        WS:      ws.ServeWS,
        Limiter: api.NewLimiter(cfg.RateLimit),
        Healthy: func() error {
            sqlDB, err := db.DB()
            if err != nil {
                return err
            }
            return sqlDB.Ping()
        },
    })

    srv := &http.Server{
        Addr:              cfg.Server.Addr,
        Handler:           router,
        ReadHeaderTimeout: 10 * time.Second,
    }

    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() error {
        logger.Info("http server listening", zap.String("addr", cfg.Server.Addr))
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            return err
        }
        return nil
    })
    g.Go(func() error {
        <-gctx.Done()
        logger.Info("shutting down")

        sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        // 先停止接收新请求，再关闭 websocket，最后排空派发队列
        err := srv.Shutdown(sctx)
        ws.CloseAll()
        if derr := stopDispatch(sctx); derr != nil {
            logger.Warn("dispatch queue not drained", zap.Error(derr), zap.Int("pending", dispatcher.Queue().Len()))
        }
        return err
    })
    return g.Wait()
}
